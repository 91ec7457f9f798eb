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

package openai

import (
	"log/slog"

	"github.com/poiesic/verbatim/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
type Provider struct {
	config    *ai.Config
	primary   *ai.ModelCompleter
	emergency *ai.ModelCompleter
	embedder  *ai.LoggingEmbedder
	logger    *slog.Logger
}

func newClient(host, token, model string, extra ...openai.Option) (*openai.LLM, error) {
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	if token == "" {
		token = "none"
	}
	opts := append([]openai.Option{
		openai.WithBaseURL(host),
		openai.WithToken(token),
		openai.WithModel(model),
	}, extra...)
	return openai.New(opts...)
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	llm, err := newClient(config.Host, config.Token, config.Primary.Model)
	if err != nil {
		return nil, err
	}
	primary, err := ai.NewModelCompleter(llm, config.Primary.CallOptions()...)
	if err != nil {
		return nil, err
	}

	emergencyLLM, err := newClient(config.Host, config.Token, config.Emergency.Model)
	if err != nil {
		return nil, err
	}
	emergency, err := ai.NewModelCompleter(emergencyLLM, config.Emergency.CallOptions()...)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:    config,
		primary:   primary,
		emergency: emergency,
		logger:    slog.Default().With("component", "openai-provider"),
	}

	if config.EmbeddingModel != "" {
		client, err := newClient(config.EmbeddingHost, config.Token, config.Primary.Model,
			openai.WithEmbeddingModel(config.EmbeddingModel))
		if err != nil {
			return nil, err
		}
		p.embedder, err = ai.NewEmbedder(client, "openai-embedder")
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
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
