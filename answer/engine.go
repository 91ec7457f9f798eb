// Package answer turns a question into a cited answer. It runs the
// retrieve, rank, filter and assemble pipeline and then walks a chain of
// generation tiers until one produces usable text.
package answer

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/cache"
	"github.com/poiesic/verbatim/query"
	"github.com/poiesic/verbatim/ranking"
	"github.com/poiesic/verbatim/render"
	"github.com/poiesic/verbatim/retrieval"
	"github.com/poiesic/verbatim/selection"
)

const (
	DefaultPrimaryTimeout   = 30 * time.Second
	DefaultSecondaryTimeout = 30 * time.Second
	DefaultEmergencyTimeout = 15 * time.Second

	// MinQuestionLength is the shortest trimmed question that is answered.
	MinQuestionLength = 2
	// MinResponseLength is the shortest trimmed primary completion accepted.
	MinResponseLength = 20
	// SecondaryContextLimit caps the context given to the secondary tier, in runes.
	SecondaryContextLimit = 5000
	// ExcerptCount and ExcerptRunes shape the raw excerpt fallback.
	ExcerptCount = 7
	ExcerptRunes = 300
	// SourceCount is the number of filtered passages cited under an answer.
	SourceCount = 15

	// QuickPassages is the number of retrieved passages a quick answer reads.
	QuickPassages = 10
	// QuickSourceCount is the number of passages cited under a quick answer.
	QuickSourceCount = 5
)

// Timeouts bounds each blocking generation tier.
type Timeouts struct {
	Primary   time.Duration `yaml:"primary"`
	Secondary time.Duration `yaml:"secondary"`
	Emergency time.Duration `yaml:"emergency"`
}

// DefaultTimeouts returns the standard tier timeouts.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Primary:   DefaultPrimaryTimeout,
		Secondary: DefaultSecondaryTimeout,
		Emergency: DefaultEmergencyTimeout,
	}
}

// Validate reports an error when any timeout is not positive.
func (t Timeouts) Validate() error {
	if t.Primary <= 0 || t.Secondary <= 0 || t.Emergency <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidOption)
	}
	return nil
}

// Engine answers questions against a transcript corpus.
// It is safe for concurrent use.
type Engine struct {
	retriever  retrieval.Retriever
	completer  ai.Completer
	emergency  ai.Completer
	embedder   ai.Embedder
	normalizer *query.Normalizer
	ranker     *ranking.Ranker
	assembler  *render.Assembler
	cache      *cache.Cache

	prompts  PromptSet
	messages Messages
	labels   render.Labels

	search      retrieval.SearchConfig
	quickSearch retrieval.SearchConfig
	budget      selection.Budget
	weights     ranking.Weights
	timeouts    Timeouts

	pool     *ants.Pool
	poolSize int
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithCache enables answer caching. Without a cache every question is generated.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) error {
		e.cache = c
		return nil
	}
}

// WithLanguage selects the prompts, messages and labels for a language
// code ("en" or "tr"). Later WithPrompts, WithMessages or WithLabels options
// override individual sets.
func WithLanguage(lang string) Option {
	return func(e *Engine) error {
		e.prompts = PromptsFor(lang)
		e.messages = MessagesFor(lang)
		e.labels = render.LabelsFor(lang)
		return nil
	}
}

// WithPrompts sets the prompt set.
func WithPrompts(p PromptSet) Option {
	return func(e *Engine) error {
		e.prompts = p
		return nil
	}
}

// WithMessages sets the user-facing message set.
func WithMessages(m Messages) Option {
	return func(e *Engine) error {
		e.messages = m
		return nil
	}
}

// WithLabels sets the labels used by the context, sources and excerpt renderers.
func WithLabels(l render.Labels) Option {
	return func(e *Engine) error {
		e.labels = l
		return nil
	}
}

// WithNormalizer sets the query normalizer.
// Default is query.NewNormalizer() with no options.
func WithNormalizer(n *query.Normalizer) Option {
	return func(e *Engine) error {
		if n == nil {
			return fmt.Errorf("%w: normalizer is nil", ErrInvalidOption)
		}
		e.normalizer = n
		return nil
	}
}

// WithWeights sets the hybrid ranking weights.
func WithWeights(w ranking.Weights) Option {
	return func(e *Engine) error {
		if err := w.Validate(); err != nil {
			return err
		}
		e.weights = w
		return nil
	}
}

// WithBudget sets the document budget for full answers.
func WithBudget(b selection.Budget) Option {
	return func(e *Engine) error {
		if b.MaxDocuments < 1 {
			return fmt.Errorf("%w: max documents must be at least 1", ErrInvalidOption)
		}
		e.budget = b
		return nil
	}
}

// WithSearch sets the search configuration for full answers.
func WithSearch(cfg retrieval.SearchConfig) Option {
	return func(e *Engine) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.search = cfg
		return nil
	}
}

// WithQuickSearch sets the search configuration for quick answers.
func WithQuickSearch(cfg retrieval.SearchConfig) Option {
	return func(e *Engine) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.quickSearch = cfg
		return nil
	}
}

// WithTimeouts sets the per-tier timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(e *Engine) error {
		if err := t.Validate(); err != nil {
			return err
		}
		e.timeouts = t
		return nil
	}
}

// WithPoolSize sets the number of workers running generation attempts.
// Default is runtime.NumCPU() / 2, with a minimum of 2.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			return fmt.Errorf("%w: pool size must be at least 1", ErrInvalidOption)
		}
		e.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates an Engine that retrieves with retriever and generates with
// the provider's completers. The provider's embedder, when present, enables
// hybrid ranking.
func NewEngine(retriever retrieval.Retriever, provider ai.Provider, opts ...Option) (*Engine, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if provider.Completer() == nil {
		return nil, ErrCompleterRequired
	}

	e := &Engine{
		retriever:   retriever,
		completer:   provider.Completer(),
		emergency:   provider.Emergency(),
		embedder:    provider.Embedder(),
		prompts:     EnglishPrompts(),
		messages:    EnglishMessages,
		labels:      render.EnglishLabels,
		search:      retrieval.DefaultSearch(),
		quickSearch: retrieval.QuickSearch(),
		budget:      selection.DefaultBudget(),
		weights:     ranking.DefaultWeights(),
		timeouts:    DefaultTimeouts(),
		poolSize:    max(runtime.NumCPU()/2, 2),
		logger:      slog.Default().With("component", "answer"),
	}
	if e.emergency == nil {
		e.emergency = e.completer
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.normalizer == nil {
		n, err := query.NewNormalizer(query.WithLogger(e.logger))
		if err != nil {
			return nil, fmt.Errorf("create normalizer: %w", err)
		}
		e.normalizer = n
	}

	rankOpts := []ranking.Option{ranking.WithWeights(e.weights), ranking.WithLogger(e.logger)}
	if e.embedder != nil {
		rankOpts = append(rankOpts, ranking.WithEmbedder(e.embedder))
	}
	ranker, err := ranking.NewRanker(e.normalizer, rankOpts...)
	if err != nil {
		return nil, fmt.Errorf("create ranker: %w", err)
	}
	e.ranker = ranker

	e.assembler = render.NewAssembler(render.WithLabels(e.labels), render.WithLogger(e.logger))

	pool, err := ants.NewPool(e.poolSize,
		ants.WithLogger(poolLogger{e.logger}),
		ants.WithPanicHandler(func(p any) {
			e.logger.Error("generation worker panicked", "panic", p)
		}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	e.pool = pool

	return e, nil
}

// Labels returns the label set in use.
func (e *Engine) Labels() render.Labels {
	return e.labels
}

// Messages returns the message set in use.
func (e *Engine) Messages() Messages {
	return e.messages
}

// Close releases the worker pool. Attempts still running are abandoned.
func (e *Engine) Close() {
	e.pool.Release()
}

// poolLogger routes ants diagnostics to slog.
type poolLogger struct {
	logger *slog.Logger
}

func (l poolLogger) Printf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "source", "ants")
}
