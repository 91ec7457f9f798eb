package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/core"
	"github.com/poiesic/verbatim/query"
)

// Ranker orders retrieved passages by hybrid relevance.
type Ranker struct {
	scorer   *Scorer
	embedder ai.Embedder
	weights  Weights
	logger   *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithEmbedder enables semantic scoring. A nil embedder means lexical only.
func WithEmbedder(e ai.Embedder) Option {
	return func(r *Ranker) error {
		r.embedder = e
		return nil
	}
}

// WithWeights overrides the default hybrid weights.
func WithWeights(w Weights) Option {
	return func(r *Ranker) error {
		if err := w.Validate(); err != nil {
			return err
		}
		r.weights = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a ranker that scores with the given normalizer's stemmer.
func NewRanker(normalizer *query.Normalizer, opts ...Option) (*Ranker, error) {
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}

	r := &Ranker{
		scorer:  NewScorer(normalizer),
		weights: DefaultWeights(),
		logger:  slog.Default().With("component", "ranker"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Scorer returns the lexical scorer used by the ranker.
func (r *Ranker) Scorer() *Scorer {
	return r.scorer
}

// Rank returns a scored copy of passages in descending score order. Without
// keywords the retrieval order is kept. Embedding failures degrade to lexical
// scoring. The input slice is not modified.
func (r *Ranker) Rank(ctx context.Context, q core.Query, passages []core.Passage) []core.Passage {
	ranked := slices.Clone(passages)
	if len(q.Keywords) == 0 || len(ranked) == 0 {
		return ranked
	}

	if r.embedder != nil {
		err := r.hybrid(ctx, q, ranked)
		if err == nil {
			sortByScore(ranked)
			return ranked
		}
		r.logger.Warn("semantic scoring unavailable, using lexical scores", "err", err)
	}

	for i := range ranked {
		ranked[i].Score = r.scorer.LexicalScore(ranked[i], q.Keywords)
	}
	sortByScore(ranked)
	return ranked
}

func (r *Ranker) hybrid(ctx context.Context, q core.Query, passages []core.Passage) error {
	qvec, err := r.embedder.EmbedQuery(ctx, q.Raw)
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	vecs, err := r.passageVectors(ctx, passages, len(qvec))
	if err != nil {
		return err
	}

	for i := range passages {
		lex := r.scorer.LexicalScore(passages[i], q.Keywords)
		score := r.weights.Hybrid(lex, CosineSimilarity(qvec, vecs[i]))
		if SpeakerMatch(q.Raw, passages[i]) {
			score *= r.weights.SpeakerBoost
		}
		passages[i].Score = score
	}
	return nil
}

// passageVectors reuses vectors supplied by the retriever when every passage
// carries one of the query's dimension, and embeds the texts otherwise.
func (r *Ranker) passageVectors(ctx context.Context, passages []core.Passage, dim int) ([][]float32, error) {
	vecs := make([][]float32, len(passages))
	reuse := dim > 0
	for i, p := range passages {
		if len(p.Vector) != dim {
			reuse = false
			break
		}
		vecs[i] = p.Vector
	}
	if reuse {
		return vecs, nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	vecs, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed passages: %w", err)
	}
	if len(vecs) != len(passages) {
		return nil, fmt.Errorf("%w: got %d vectors for %d passages", ErrEmbeddingMismatch, len(vecs), len(passages))
	}
	return vecs, nil
}

func sortByScore(passages []core.Passage) {
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
}
