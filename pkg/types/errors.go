// Package types holds shared types and sentinel errors.
package types

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrDimensionMismatch is returned when a vector source does not have
	// exactly the expected number of components.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotFound is returned when a requested record is not found.
	ErrNotFound = errors.New("not found")

	// ErrStoreFailed is returned when a store operation fails.
	ErrStoreFailed = errors.New("store operation failed")

	// ErrEmbeddingFailed is returned when embedding generation fails.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrReadOnly is returned when opening a missing database read-only.
	ErrReadOnly = errors.New("database does not exist")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)
