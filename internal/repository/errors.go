package repository

import "errors"

var (
	// ErrNotFound means the requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate means a unique index rejected the write.
	ErrDuplicate = errors.New("duplicate document")
	// ErrNotAvailable means the conditional claim update matched no
	// available listing (already claimed, expired or gone).
	ErrNotAvailable = errors.New("listing not available")
	// ErrTokenMismatch means the conditional refresh rotation matched no
	// record: the presented token is stale, reused or expired.
	ErrTokenMismatch = errors.New("refresh token mismatch")
)
