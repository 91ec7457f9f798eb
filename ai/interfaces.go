package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity scoring.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedQuery generates a vector embedding for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments generates vector embeddings for multiple passages in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer produces a completion for a single prompt.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StreamFunc receives completion chunks as they are produced.
// Returning an error aborts the stream.
type StreamFunc func(chunk string) error

// Streamer is an optional capability of a Completer that can deliver output
// incrementally.
type Streamer interface {
	Stream(ctx context.Context, prompt string, fn StreamFunc) error
}

// Provider aggregates the generation services used to answer questions.
type Provider interface {
	// Completer returns the primary completion service.
	Completer() Completer

	// Emergency returns the completion service configured for the last-resort
	// tier. It may share a model with Completer but uses lighter settings.
	Emergency() Completer

	// Embedder returns the embedding service. It may be nil, in which case
	// ranking is lexical only.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	Close() error
}
