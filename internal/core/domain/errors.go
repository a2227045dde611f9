package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnknownCategory indicates a category name that is not content, media or member.
	ErrUnknownCategory = errors.New("unknown category")

	// Pipeline Errors.

	// ErrPipelineDisabled indicates the synchronisation pipeline disabled itself
	// at startup and ignores notifications.
	ErrPipelineDisabled = errors.New("index synchronisation disabled")

	// ErrNotMainDom indicates another process owns index writes.
	ErrNotMainDom = errors.New("not the main domain")

	// ErrIndexUnavailable indicates a named index is not registered.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrQueueClosed indicates the background queue no longer accepts work.
	ErrQueueClosed = errors.New("queue closed")

	// Persistence Errors.

	// ErrScopeClosed indicates a unit of work was used after it completed.
	ErrScopeClosed = errors.New("scope closed")

	// ErrReadOnlyScope indicates a write was attempted in a read-only unit of work.
	ErrReadOnlyScope = errors.New("read-only scope")
)
