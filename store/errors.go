package store

import "errors"

// Sentinel errors returned by the stores. Controllers map these onto HTTP
// status codes; anything else surfaces as a generic failure.
var (
	// ErrNotFound means the entity does not exist or is already soft deleted.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a referential or uniqueness guard rejected the change.
	ErrConflict = errors.New("conflicting state")
	// ErrPermissionDenied means the requester is neither owner nor admin.
	ErrPermissionDenied = errors.New("permission denied")
)
