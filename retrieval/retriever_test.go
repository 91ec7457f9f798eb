package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/verbatim/core"
)

type plainRetriever struct {
	calls int
}

func (p *plainRetriever) Retrieve(_ context.Context, _ string) ([]core.Passage, error) {
	p.calls++
	return []core.Passage{{Text: "plain"}}, nil
}

type tunableRetriever struct {
	plainRetriever
	got []SearchConfig
}

func (r *tunableRetriever) RetrieveWith(_ context.Context, _ string, cfg SearchConfig) ([]core.Passage, error) {
	r.got = append(r.got, cfg)
	return []core.Passage{{Text: "tuned"}}, nil
}

func TestSearchConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultSearch().Validate())
	assert.NoError(t, QuickSearch().Validate())

	tests := []struct {
		name string
		cfg  SearchConfig
	}{
		{"unknown mode", SearchConfig{Mode: "fuzzy", K: 1}},
		{"zero k", SearchConfig{Mode: ModeSimilarity}},
		{"fetch below k", SearchConfig{Mode: ModeMMR, K: 10, FetchK: 5, Lambda: 0.5}},
		{"lambda out of range", SearchConfig{Mode: ModeMMR, K: 10, FetchK: 20, Lambda: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), ErrInvalidSearchConfig)
		})
	}
}

func TestDefaultsAreIndependentValues(t *testing.T) {
	cfg := DefaultSearch()
	cfg.K = 1
	assert.Equal(t, 40, DefaultSearch().K)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("configurable retriever receives config", func(t *testing.T) {
		r := &tunableRetriever{}
		got, err := Search(ctx, r, "q", QuickSearch())
		require.NoError(t, err)
		assert.Equal(t, "tuned", got[0].Text)
		assert.Equal(t, []SearchConfig{QuickSearch()}, r.got)
		assert.Equal(t, 0, r.calls)
	})

	t.Run("plain retriever ignores config", func(t *testing.T) {
		r := &plainRetriever{}
		got, err := Search(ctx, r, "q", QuickSearch())
		require.NoError(t, err)
		assert.Equal(t, "plain", got[0].Text)
		assert.Equal(t, 1, r.calls)
	})

	t.Run("nil retriever", func(t *testing.T) {
		_, err := Search(ctx, nil, "q", QuickSearch())
		assert.ErrorIs(t, err, ErrRetrieverRequired)
	})
}
