// Package domain defines the core business entities for the index
// synchronisation pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ValueSet: A flat field-value document submitted to an index
//   - FieldSet: The ordered field mapping carried by a ValueSet
//   - Entity: A content item, media item or member read from the store
//   - IndexDescriptor: Static per-index configuration
//   - ValidationResult: The outcome of running a ValueSet through a validator
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
