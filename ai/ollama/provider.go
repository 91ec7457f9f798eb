// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ollama provides AI services backed by a native Ollama server.
//
// The primary and emergency completers run the same or different models with
// separate sampling settings, including Ollama-only runner options such as
// context size and mirostat.
//
//	config := ai.DefaultConfig()
//	provider, err := ollama.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	answer, err := provider.Completer().Complete(ctx, "Soru: ...\n\nYanıt ver:")
package ollama

import (
	"log/slog"

	"github.com/poiesic/verbatim/ai"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Provider implements ai.Provider using an Ollama server.
type Provider struct {
	config    *ai.Config
	primary   *ai.ModelCompleter
	emergency *ai.ModelCompleter
	embedder  *ai.LoggingEmbedder
	logger    *slog.Logger
}

// runnerOptions builds the client-level options for one model.
func runnerOptions(host string, p ai.ModelParams) []ollama.Option {
	opts := []ollama.Option{
		ollama.WithServerURL(host),
		ollama.WithModel(p.Model),
	}
	if p.NumCtx > 0 {
		opts = append(opts, ollama.WithRunnerNumCtx(p.NumCtx))
	}
	if p.Mirostat > 0 {
		opts = append(opts,
			ollama.WithPredictMirostat(p.Mirostat),
			ollama.WithPredictMirostatTau(float32(p.MirostatTau)),
			ollama.WithPredictMirostatEta(float32(p.MirostatEta)),
		)
	}
	return opts
}

func newCompleter(host string, p ai.ModelParams) (*ai.ModelCompleter, error) {
	llm, err := ollama.New(runnerOptions(host, p)...)
	if err != nil {
		return nil, err
	}
	return ai.NewModelCompleter(llm, p.CallOptions()...)
}

// NewProvider creates a new AI provider backed by Ollama.
// The config is validated and normalized before use.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	primary, err := newCompleter(config.Host, config.Primary)
	if err != nil {
		return nil, err
	}
	emergency, err := newCompleter(config.Host, config.Emergency)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:    config,
		primary:   primary,
		emergency: emergency,
		logger:    slog.Default().With("component", "ollama-provider"),
	}

	if config.EmbeddingModel != "" {
		client, err := ollama.New(
			ollama.WithServerURL(config.EmbeddingHost),
			ollama.WithModel(config.EmbeddingModel),
		)
		if err != nil {
			return nil, err
		}
		p.embedder, err = ai.NewEmbedder(client, "ollama-embedder")
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Completer returns the primary completion service.
func (p *Provider) Completer() ai.Completer {
	return p.primary
}

// Emergency returns the emergency completion service.
func (p *Provider) Emergency() ai.Completer {
	return p.emergency
}

// Embedder returns the embedding service, or nil when no embedding model is configured.
func (p *Provider) Embedder() ai.Embedder {
	if p.embedder == nil {
		return nil
	}
	return p.embedder
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying HTTP clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
