// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Completer, ai.Streamer,
// ai.Embedder, and ai.Provider for use in unit tests. The mocks allow tests to
// run without external AI service dependencies and enable controlled,
// deterministic behavior. All mocks are safe for concurrent use.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	completer := mock.NewMockCompleter()
//	text, err := completer.Complete(ctx, "prompt")
//
//	// Custom behavior injection
//	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
//	    return "", errors.New("service down")
//	}
//
//	// Check call counts
//	count := completer.CallCount()
//
// # Default Behavior
//
//   - MockCompleter: returns a fixed answer long enough to pass quality checks
//   - MockStreamer: streams the MockCompleter output word by word
//   - MockEmbedder: returns deterministic vectors based on text hash
//   - MockProvider: aggregates the mocks above
package mock
