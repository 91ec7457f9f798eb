// Package retrieval defines how the answer pipeline fetches candidate passages.
//
// A Retriever returns passages for a question. Backends that can tune each
// search implement ConfigurableRetriever and receive an immutable SearchConfig
// per call, so concurrent quick and full searches never share mutable state.
package retrieval

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_retriever.go -package=mocks github.com/poiesic/verbatim/retrieval Retriever,ConfigurableRetriever

import (
	"context"
	"fmt"

	"github.com/poiesic/verbatim/core"
)

// SearchMode selects the similarity search strategy.
type SearchMode string

const (
	// ModeSimilarity returns the K nearest passages.
	ModeSimilarity SearchMode = "similarity"
	// ModeMMR re-ranks FetchK nearest candidates for diversity and returns K.
	ModeMMR SearchMode = "mmr"
)

// SearchConfig parameterizes one search. It is passed by value.
type SearchConfig struct {
	Mode   SearchMode `yaml:"mode"`
	K      int        `yaml:"k"`
	FetchK int        `yaml:"fetch_k"`
	// Lambda trades relevance (1) against diversity (0) in MMR mode.
	Lambda float64 `yaml:"lambda"`
}

// DefaultSearch is the full-answer search: MMR over 80 candidates, 40 results.
func DefaultSearch() SearchConfig {
	return SearchConfig{Mode: ModeMMR, K: 40, FetchK: 80, Lambda: 0.8}
}

// QuickSearch is the low-latency search used by quick answers.
func QuickSearch() SearchConfig {
	return SearchConfig{Mode: ModeSimilarity, K: 10}
}

// Validate checks the config.
func (c SearchConfig) Validate() error {
	switch c.Mode {
	case ModeSimilarity, ModeMMR:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSearchConfig, c.Mode)
	}
	if c.K <= 0 {
		return fmt.Errorf("%w: K must be positive", ErrInvalidSearchConfig)
	}
	if c.Mode == ModeMMR {
		if c.FetchK < c.K {
			return fmt.Errorf("%w: FetchK must be at least K", ErrInvalidSearchConfig)
		}
		if c.Lambda < 0 || c.Lambda > 1 {
			return fmt.Errorf("%w: Lambda must be in [0, 1]", ErrInvalidSearchConfig)
		}
	}
	return nil
}

// Retriever returns candidate passages for a question.
type Retriever interface {
	Retrieve(ctx context.Context, text string) ([]core.Passage, error)
}

// ConfigurableRetriever is a Retriever that accepts per-call search settings.
type ConfigurableRetriever interface {
	Retriever
	RetrieveWith(ctx context.Context, text string, cfg SearchConfig) ([]core.Passage, error)
}

// Search retrieves with cfg when r supports it and falls back to r's own
// settings otherwise.
func Search(ctx context.Context, r Retriever, text string, cfg SearchConfig) ([]core.Passage, error) {
	if r == nil {
		return nil, ErrRetrieverRequired
	}
	if cr, ok := r.(ConfigurableRetriever); ok {
		return cr.RetrieveWith(ctx, text, cfg)
	}
	return r.Retrieve(ctx, text)
}
