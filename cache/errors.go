package cache

import "errors"

var (
	// ErrStoreRequired indicates a cache was created without a durable store.
	ErrStoreRequired = errors.New("cache store is required")

	// ErrInvalidOption indicates an option received an out-of-range value.
	ErrInvalidOption = errors.New("invalid cache option")
)
