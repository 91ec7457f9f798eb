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

package ai

import (
	"errors"
	"strings"
)

// Backend names a completion service family.
type Backend string

const (
	// BackendOllama talks to an Ollama server through its native API.
	BackendOllama Backend = "ollama"

	// BackendOpenAI talks to any OpenAI-compatible server.
	BackendOpenAI Backend = "openai"
)

// ModelParams holds the sampling settings for one completion model.
type ModelParams struct {
	Model         string  `yaml:"model"`
	Temperature   float64 `yaml:"temperature"`
	TopP          float64 `yaml:"top_p"`
	TopK          int     `yaml:"top_k"`
	MaxTokens     int     `yaml:"max_tokens"`
	NumCtx        int     `yaml:"num_ctx"`
	RepeatPenalty float64 `yaml:"repeat_penalty"`

	// Mirostat settings only apply to the Ollama backend. Zero disables mirostat.
	Mirostat    int     `yaml:"mirostat"`
	MirostatTau float64 `yaml:"mirostat_tau"`
	MirostatEta float64 `yaml:"mirostat_eta"`
}

// Config holds configuration for AI service providers.
type Config struct {
	// Backend selects the completion service family.
	Backend Backend `yaml:"backend"`

	// Host is the base URL for the completion service.
	// Example: "http://localhost:11434"
	Host string `yaml:"host"`

	// EmbeddingHost is the base URL for the embedding service. Defaults to Host.
	EmbeddingHost string `yaml:"embedding_host"`

	// EmbeddingModel is the model identifier to use for embeddings.
	// Empty disables semantic scoring.
	EmbeddingModel string `yaml:"embedding_model"`

	// Token is the API key for OpenAI-compatible hosts. Local servers accept "none".
	Token string `yaml:"token"`

	// Primary configures the model used by the primary and secondary tiers.
	Primary ModelParams `yaml:"primary"`

	// Emergency configures the model used by the last-resort tier.
	Emergency ModelParams `yaml:"emergency"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the completion backend.
func WithBackend(b Backend) ConfigOption {
	return func(c *Config) {
		c.Backend = b
	}
}

// WithHost sets both completion and embedding hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
		c.EmbeddingHost = host
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithModel sets the primary and emergency model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Primary.Model = model
		c.Emergency.Model = model
	}
}

// WithEmergencyModel sets only the emergency model identifier.
func WithEmergencyModel(model string) ConfigOption {
	return func(c *Config) {
		c.Emergency.Model = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// DefaultPrimaryParams returns the sampling settings of the primary model.
func DefaultPrimaryParams() ModelParams {
	return ModelParams{
		Model:         "llama3.1",
		Temperature:   0.5,
		TopP:          0.92,
		TopK:          40,
		MaxTokens:     2048,
		NumCtx:        8192,
		RepeatPenalty: 1.18,
		Mirostat:      2,
		MirostatTau:   5.0,
		MirostatEta:   0.1,
	}
}

// DefaultEmergencyParams returns the lighter settings of the emergency model.
func DefaultEmergencyParams() ModelParams {
	return ModelParams{
		Model:         "llama3.1",
		Temperature:   0.3,
		TopP:          0.9,
		TopK:          40,
		MaxTokens:     1024,
		NumCtx:        4096,
		RepeatPenalty: 1.1,
	}
}

// DefaultConfig returns a Config with sensible defaults for a local Ollama server.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434"
	return &Config{
		Backend:        BackendOllama,
		Host:           defaultHost,
		EmbeddingHost:  defaultHost,
		EmbeddingModel: "nomic-embed-text",
		Token:          "none",
		Primary:        DefaultPrimaryParams(),
		Emergency:      DefaultEmergencyParams(),
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendOpenAI),
//	    WithHost("http://localhost:8080"),
//	    WithModel("qwen2.5:7b"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get a /v1 suffix; Ollama hosts lose it, since the
// native Ollama client appends its own API paths.
func (c *Config) Normalize() {
	if c.Backend == "" {
		c.Backend = BackendOllama
	}
	if c.EmbeddingHost == "" {
		c.EmbeddingHost = c.Host
	}
	c.Host = c.normalizeHost(c.Host)
	c.EmbeddingHost = c.normalizeHost(c.EmbeddingHost)
	if c.Emergency.Model == "" {
		c.Emergency.Model = c.Primary.Model
	}
}

func (c *Config) normalizeHost(host string) string {
	if host == "" {
		return host
	}
	host = strings.TrimSuffix(host, "/")
	switch c.Backend {
	case BackendOpenAI:
		if !strings.HasSuffix(host, "/v1") {
			host += "/v1"
		}
	case BackendOllama:
		host = strings.TrimSuffix(host, "/v1")
	}
	return host
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Backend != BackendOllama && c.Backend != BackendOpenAI {
		return errors.New("ai config: Backend must be ollama or openai")
	}
	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Primary.Model == "" {
		return errors.New("ai config: Primary.Model is required")
	}
	if c.Primary.MaxTokens < 0 || c.Emergency.MaxTokens < 0 {
		return errors.New("ai config: MaxTokens must not be negative")
	}
	if c.Primary.Temperature < 0 || c.Emergency.Temperature < 0 {
		return errors.New("ai config: Temperature must not be negative")
	}
	return nil
}
