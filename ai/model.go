package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
)

// ErrModelRequired is returned when a nil langchaingo model is wrapped.
var ErrModelRequired = errors.New("model is required")

// CallOptions converts sampling settings to langchaingo call options.
// Zero values are omitted so the backend defaults apply.
func (p ModelParams) CallOptions() []llms.CallOption {
	var opts []llms.CallOption
	if p.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(p.Temperature))
	}
	if p.TopP > 0 {
		opts = append(opts, llms.WithTopP(p.TopP))
	}
	if p.TopK > 0 {
		opts = append(opts, llms.WithTopK(p.TopK))
	}
	if p.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.MaxTokens))
	}
	if p.RepeatPenalty > 0 {
		opts = append(opts, llms.WithRepetitionPenalty(p.RepeatPenalty))
	}
	return opts
}

// ModelCompleter adapts a langchaingo model to Completer and Streamer.
type ModelCompleter struct {
	model  llms.Model
	opts   []llms.CallOption
	logger *slog.Logger
}

// NewModelCompleter wraps model. The call options are applied to every request.
func NewModelCompleter(model llms.Model, opts ...llms.CallOption) (*ModelCompleter, error) {
	if model == nil {
		return nil, ErrModelRequired
	}
	return &ModelCompleter{
		model:  model,
		opts:   opts,
		logger: slog.Default().With("component", "model-completer"),
	}, nil
}

// Complete implements Completer.
func (m *ModelCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.logger.Debug("generating completion", "prompt_length", len(prompt))
	out, err := llms.GenerateFromSinglePrompt(ctx, m.model, prompt, m.opts...)
	if err != nil {
		m.logger.Error("completion failed", "err", err)
		return "", err
	}
	return out, nil
}

// Stream implements Streamer. Models that ignore the streaming callback still
// deliver their full output as a single chunk.
func (m *ModelCompleter) Stream(ctx context.Context, prompt string, fn StreamFunc) error {
	streamed := false
	opts := append(append([]llms.CallOption(nil), m.opts...),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			streamed = true
			return fn(string(chunk))
		}))

	out, err := llms.GenerateFromSinglePrompt(ctx, m.model, prompt, opts...)
	if err != nil {
		m.logger.Error("streaming completion failed", "streamed", streamed, "err", err)
		return err
	}
	if !streamed && strings.TrimSpace(out) != "" {
		return fn(out)
	}
	return nil
}

var (
	_ Completer = (*ModelCompleter)(nil)
	_ Streamer  = (*ModelCompleter)(nil)
)

// LoggingEmbedder wraps a langchaingo embedder with debug logging.
type LoggingEmbedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// NewEmbedder builds an embedder on top of any langchaingo embedding client.
func NewEmbedder(client embeddings.EmbedderClient, component string) (*LoggingEmbedder, error) {
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}
	return &LoggingEmbedder{
		embedder: embedder,
		logger:   slog.Default().With("component", component),
	}, nil
}

// EmbedQuery implements Embedder.
func (e *LoggingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for query", "length", len(text))

	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}
	return vec, nil
}

// EmbedDocuments implements Embedder.
func (e *LoggingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vecs, nil
}

var _ Embedder = (*LoggingEmbedder)(nil)
