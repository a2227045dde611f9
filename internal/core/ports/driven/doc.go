// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Index: A full-text index the pipeline writes documents to
//   - ScopeProvider: Opens units of work against the content store
//   - Scope: A unit of work with commit/rollback and enlisted completions
//   - EntityStore: Content, media and member reads and writes
//   - ProtectionService: Public access rule lookups
//   - UserLookup: Back office user names for projections
//   - TaskQueue: Background execution of index work
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - MainDom: Single-writer election. Without it the process assumes it owns index writes.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
