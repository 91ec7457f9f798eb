package ranking

import "errors"

var (
	// ErrNormalizerRequired is returned when a Ranker is built without a normalizer.
	ErrNormalizerRequired = errors.New("normalizer is required")

	// ErrEmbeddingMismatch is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
