// Package qdrant retrieves transcript passages from a Qdrant collection.
//
// Questions are embedded with an ai.Embedder and searched with the Query API,
// using Qdrant's native maximal marginal relevance when the search config asks
// for it. Point payloads are mapped onto core.Passage; both flat payloads and
// payloads with a nested "metadata" object are understood.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/core"
	"github.com/poiesic/verbatim/retrieval"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 200 * time.Millisecond
)

var (
	// ErrClientRequired indicates a nil Qdrant client.
	ErrClientRequired = errors.New("qdrant client is required")
	// ErrEmbedderRequired indicates a nil embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
	// ErrCollectionRequired indicates an empty collection name.
	ErrCollectionRequired = errors.New("collection name is required")
)

// Client is the subset of *qdrant.Client the retriever uses.
type Client interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

var _ Client = (*qdrant.Client)(nil)

// Retriever implements retrieval.ConfigurableRetriever on Qdrant.
type Retriever struct {
	client      Client
	embedder    ai.Embedder
	collection  string
	search      retrieval.SearchConfig
	maxAttempts int
	baseDelay   time.Duration
	withVectors bool
	logger      *slog.Logger
}

var _ retrieval.ConfigurableRetriever = (*Retriever)(nil)

// Option configures a Retriever.
type Option func(*Retriever) error

// WithSearch sets the config used by Retrieve.
func WithSearch(cfg retrieval.SearchConfig) Option {
	return func(r *Retriever) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		r.search = cfg
		return nil
	}
}

// WithRetry sets the retry budget for transient query failures.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(r *Retriever) error {
		if maxAttempts <= 0 {
			return retrieval.ErrInvalidMaxAttempts
		}
		r.maxAttempts = maxAttempts
		r.baseDelay = baseDelay
		return nil
	}
}

// WithVectors requests stored vectors with each point so the ranker can skip
// re-embedding passages.
func WithVectors(enabled bool) Option {
	return func(r *Retriever) error {
		r.withVectors = enabled
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// New creates a retriever over collection.
func New(client Client, embedder ai.Embedder, collection string, opts ...Option) (*Retriever, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if collection == "" {
		return nil, ErrCollectionRequired
	}

	r := &Retriever{
		client:      client,
		embedder:    embedder,
		collection:  collection,
		search:      retrieval.DefaultSearch(),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default().With("component", "qdrant-retriever"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Dial connects to Qdrant. urlStr is the HTTP address, e.g.
// "http://localhost:6333"; the gRPC port is derived as HTTP port + 1.
func Dial(urlStr, apiKey string) (*qdrant.Client, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsedURL.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return client, nil
}

// Close closes the underlying client.
func (r *Retriever) Close() error {
	return r.client.Close()
}

// Retrieve searches with the retriever's configured search settings.
func (r *Retriever) Retrieve(ctx context.Context, text string) ([]core.Passage, error) {
	return r.RetrieveWith(ctx, text, r.search)
}

// RetrieveWith embeds text and searches with cfg. Transient gRPC failures
// are retried with exponential backoff.
func (r *Retriever) RetrieveWith(ctx context.Context, text string, cfg retrieval.SearchConfig) ([]core.Passage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	vector, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	request := r.queryRequest(vector, cfg)

	var points []*qdrant.ScoredPoint
	err = retrieval.RetryWithBackoff(ctx, func() error {
		var qerr error
		points, qerr = r.client.Query(ctx, request)
		if qerr != nil && !transient(qerr) {
			return retrieval.Permanent(qerr)
		}
		return qerr
	}, r.maxAttempts, r.baseDelay)
	if err != nil {
		r.logger.Error("qdrant query failed", "collection", r.collection, "mode", cfg.Mode, "k", cfg.K, "err", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	passages := make([]core.Passage, 0, len(points))
	for _, point := range points {
		passages = append(passages, toPassage(point))
	}

	r.logger.Debug("search completed", "collection", r.collection, "mode", cfg.Mode, "k", cfg.K, "results", len(passages))
	return passages, nil
}

func (r *Retriever) queryRequest(vector []float32, cfg retrieval.SearchConfig) *qdrant.QueryPoints {
	limit := uint64(cfg.K)
	request := &qdrant.QueryPoints{
		CollectionName: r.collection,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if r.withVectors {
		request.WithVectors = qdrant.NewWithVectors(true)
	}

	switch cfg.Mode {
	case retrieval.ModeMMR:
		request.Query = qdrant.NewQueryMMR(
			qdrant.NewVectorInput(vector...),
			&qdrant.Mmr{
				Diversity:       qdrant.PtrOf(float32(1 - cfg.Lambda)),
				CandidatesLimit: qdrant.PtrOf(uint32(cfg.FetchK)),
			},
		)
	default:
		request.Query = qdrant.NewQuery(vector...)
	}
	return request
}

// transient reports whether a query error is worth retrying.
func transient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
