package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/verbatim/ai"
)

// DefaultAnswer is returned by MockCompleter when no CompleteFunc is set.
const DefaultAnswer = "Based on the transcripts, the speakers discussed the topic in detail."

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns DefaultAnswer.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewMockCompleter creates a mock completer with default behavior.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete records the prompt and returns the configured response.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return DefaultAnswer, nil
}

// CallCount returns the number of times Complete or Stream was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns a copy of every prompt received, in call order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Reset clears the call count, recorded prompts, and injected behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.prompts = nil
	m.CompleteFunc = nil
}

// MockStreamer is a MockCompleter that also implements ai.Streamer.
type MockStreamer struct {
	MockCompleter

	// StreamFunc is called by Stream if set.
	// If nil, streams the Complete output one word at a time.
	StreamFunc func(ctx context.Context, prompt string, fn ai.StreamFunc) error
}

// NewMockStreamer creates a mock streaming completer with default behavior.
func NewMockStreamer() *MockStreamer {
	return &MockStreamer{}
}

// Stream implements ai.Streamer.
func (m *MockStreamer) Stream(ctx context.Context, prompt string, fn ai.StreamFunc) error {
	m.mu.Lock()
	sf := m.StreamFunc
	if sf != nil {
		m.callCount++
		m.prompts = append(m.prompts, prompt)
	}
	m.mu.Unlock()

	if sf != nil {
		return sf(ctx, prompt, fn)
	}

	text, err := m.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	words := strings.SplitAfter(text, " ")
	for _, w := range words {
		if err := fn(w); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ ai.Completer = (*MockCompleter)(nil)
	_ ai.Streamer  = (*MockStreamer)(nil)
)
