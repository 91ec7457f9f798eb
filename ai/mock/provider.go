package mock

import "github.com/poiesic/verbatim/ai"

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	completer *MockStreamer
	emergency *MockCompleter
	embedder  *MockEmbedder
	closed    bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockCompleter()/GetMockEmergency()/GetMockEmbedder() to access
// concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		completer: NewMockStreamer(),
		emergency: NewMockCompleter(),
		embedder:  NewMockEmbedder(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// A nil embedder makes Embedder return nil.
func NewMockProviderWithServices(completer *MockStreamer, emergency *MockCompleter, embedder *MockEmbedder) ai.Provider {
	return &MockProvider{
		completer: completer,
		emergency: emergency,
		embedder:  embedder,
	}
}

// Completer returns the mock streaming completer.
func (p *MockProvider) Completer() ai.Completer {
	return p.completer
}

// Emergency returns the mock emergency completer.
func (p *MockProvider) Emergency() ai.Completer {
	return p.emergency
}

// Embedder returns the mock embedder, or nil when none was supplied.
func (p *MockProvider) Embedder() ai.Embedder {
	if p.embedder == nil {
		return nil
	}
	return p.embedder
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockCompleter returns the underlying primary completer for test assertions.
func (p *MockProvider) GetMockCompleter() *MockStreamer {
	return p.completer
}

// GetMockEmergency returns the underlying emergency completer for test assertions.
func (p *MockProvider) GetMockEmergency() *MockCompleter {
	return p.emergency
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}
