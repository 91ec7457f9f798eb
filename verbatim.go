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

// Package verbatim answers questions about a corpus of recorded-conversation
// transcripts, citing the passages each answer is drawn from.
package verbatim

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/ai/ollama"
	"github.com/poiesic/verbatim/ai/openai"
	"github.com/poiesic/verbatim/answer"
	"github.com/poiesic/verbatim/batch"
	"github.com/poiesic/verbatim/cache"
	cachebadger "github.com/poiesic/verbatim/cache/badger"
	cachesqlite "github.com/poiesic/verbatim/cache/sqlite"
	"github.com/poiesic/verbatim/config"
	"github.com/poiesic/verbatim/core"
	"github.com/poiesic/verbatim/render"
	"github.com/poiesic/verbatim/retrieval"
	"github.com/poiesic/verbatim/retrieval/qdrant"
)

// Service wires the retriever, the AI provider, the answer cache and the
// answer engine together. Build it once with New and share it.
type Service struct {
	cfg      *config.Config
	engine   *answer.Engine
	cache    *cache.Cache
	provider ai.Provider
	closers  []io.Closer
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	provider  ai.Provider
	retriever retrieval.Retriever
	store     cache.Store
	logger    *slog.Logger
}

// WithProvider supplies the AI provider instead of building one from the config.
func WithProvider(p ai.Provider) Option {
	return func(o *serviceOptions) {
		o.provider = p
	}
}

// WithRetriever supplies the retriever instead of dialing Qdrant.
func WithRetriever(r retrieval.Retriever) Option {
	return func(o *serviceOptions) {
		o.retriever = r
	}
}

// WithStore supplies the durable cache store instead of opening the configured one.
func WithStore(s cache.Store) Option {
	return func(o *serviceOptions) {
		o.store = s
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// New builds a Service from cfg. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) (svc *Service, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	s := &Service{cfg: cfg, logger: options.logger}
	defer func() {
		if err != nil {
			s.closeAll()
		}
	}()

	s.provider = options.provider
	if s.provider == nil {
		s.provider, err = NewProvider(&cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("create ai provider: %w", err)
		}
		s.closers = append(s.closers, s.provider)
	}

	retriever := options.retriever
	if retriever == nil {
		client, err := qdrant.Dial(cfg.Qdrant.URL, cfg.Qdrant.APIKey)
		if err != nil {
			return nil, err
		}
		r, err := qdrant.New(client, s.provider.Embedder(), cfg.Qdrant.Collection,
			qdrant.WithSearch(cfg.Search),
			qdrant.WithVectors(cfg.Qdrant.WithVectors),
			qdrant.WithLogger(s.logger))
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("create retriever: %w", err)
		}
		s.closers = append(s.closers, r)
		retriever = r
	}

	store := options.store
	if store == nil {
		store, err = OpenStore(cfg.Cache, s.logger)
		if err != nil {
			return nil, err
		}
	}

	s.cache, err = cache.New(context.Background(), store,
		cache.WithSweep(cfg.Cache.SweepEvery, cfg.Cache.CleanThreshold, cfg.Cache.KeepCount),
		cache.WithSaveEvery(cfg.Cache.SaveEvery),
		cache.WithLogger(s.logger))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create cache: %w", err)
	}

	engineOpts := []answer.Option{
		answer.WithCache(s.cache),
		answer.WithLanguage(cfg.Language),
		answer.WithSearch(cfg.Search),
		answer.WithQuickSearch(cfg.QuickSearch),
		answer.WithWeights(cfg.Ranking),
		answer.WithBudget(cfg.Budget),
		answer.WithTimeouts(cfg.Timeouts),
		answer.WithLogger(s.logger),
	}
	if cfg.Workers > 0 {
		engineOpts = append(engineOpts, answer.WithPoolSize(cfg.Workers))
	}
	s.engine, err = answer.NewEngine(retriever, s.provider, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("create answer engine: %w", err)
	}

	return s, nil
}

// NewProvider builds the AI provider for the configured backend.
func NewProvider(cfg *ai.Config) (ai.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case ai.BackendOpenAI:
		return openai.NewProvider(cfg)
	default:
		return ollama.NewProvider(cfg)
	}
}

// OpenStore opens the configured durable cache store.
func OpenStore(cfg config.CacheConfig, logger *slog.Logger) (cache.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return cache.NewMemoryStore(nil), nil
	case config.StoreSQLite:
		store, err := cachesqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		return store, nil
	default:
		store, err := cachebadger.Open(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open badger cache: %w", err)
		}
		return store, nil
	}
}

// Answer answers question with the full pipeline. See answer.Engine.Answer.
func (s *Service) Answer(ctx context.Context, question string, stream ai.StreamFunc) (string, error) {
	return s.engine.Answer(ctx, question, stream)
}

// AnswerWithMonitor returns the full result of answering question.
func (s *Service) AnswerWithMonitor(ctx context.Context, question string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error) {
	return s.engine.AnswerWithMonitor(ctx, question, stream, monitor)
}

// QuickAnswer answers question in quick mode. See answer.Engine.QuickAnswer.
func (s *Service) QuickAnswer(ctx context.Context, question string, stream ai.StreamFunc) (string, error) {
	return s.engine.QuickAnswer(ctx, question, stream)
}

// QuickAnswerWithMonitor returns the full result of a quick answer.
func (s *Service) QuickAnswerWithMonitor(ctx context.Context, question string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error) {
	return s.engine.QuickAnswerWithMonitor(ctx, question, stream, monitor)
}

// AnswerAll quick-answers every question concurrently and returns the
// answers in input order. Failed questions carry an error message in place.
func (s *Service) AnswerAll(ctx context.Context, questions []string, opts ...batch.Option) []string {
	base := []batch.Option{
		batch.WithWorkers(s.cfg.Batch.Workers),
		batch.WithTimeout(s.cfg.Batch.Timeout),
		batch.WithFailurePrefix(s.engine.Messages().BatchFailed),
		batch.WithLogger(s.logger),
	}
	runner, err := batch.NewRunner(s.engine, append(base, opts...)...)
	if err != nil {
		s.logger.Error("failed to create batch runner", "err", err)
		out := make([]string, len(questions))
		for i := range out {
			out[i] = fmt.Sprintf("%s: %v", s.engine.Messages().BatchFailed, err)
		}
		return out
	}
	defer runner.Release()
	return runner.Run(ctx, questions)
}

// Labels returns the label set used for rendering.
func (s *Service) Labels() render.Labels {
	return s.engine.Labels()
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// CacheStats reports the answer cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// FlushCache writes the durable cache tier to its store.
func (s *Service) FlushCache(ctx context.Context) error {
	return s.cache.Flush(ctx)
}

// ClearCache empties both cache tiers and the store.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// Close saves the cache and releases every resource the service opened.
func (s *Service) Close() error {
	if s.engine != nil {
		s.engine.Close()
	}
	var firstErr error
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("error closing answer cache", "err", err)
			firstErr = err
		}
	}
	if err := s.closeAll(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Service) closeAll() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Error("error closing resource", "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	s.closers = nil
	return firstErr
}
