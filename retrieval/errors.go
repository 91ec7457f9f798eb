package retrieval

import "errors"

var (
	// ErrInvalidMaxAttempts indicates that maxAttempts must be greater than 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidSearchConfig indicates a SearchConfig failed validation.
	ErrInvalidSearchConfig = errors.New("invalid search config")

	// ErrRetrieverRequired indicates a nil retriever was supplied.
	ErrRetrieverRequired = errors.New("retriever is required")
)
