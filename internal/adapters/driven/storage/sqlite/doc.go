// Package sqlite provides the SQLite-backed content store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database holds:
//
//   - nodes: content, media and members sharing one id space
//   - node_variants and node_properties: per-culture names and property values
//   - users: back office users referenced by creator and writer ids
//   - public_access: protection rules
//
// # Scopes
//
// A Scope wraps one database transaction. Enlisted completions run after
// the transaction commits or rolls back, so background work they start
// reads committed data.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-indexer/data/metadata.db
package sqlite
