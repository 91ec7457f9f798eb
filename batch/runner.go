// Package batch answers many questions concurrently with quick answers.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/verbatim/ai"
)

const (
	// DefaultWorkers is the number of questions answered at once.
	DefaultWorkers = 4
	// DefaultTimeout bounds each question.
	DefaultTimeout = 60 * time.Second
	// DefaultFailurePrefix starts the result of a question that failed.
	DefaultFailurePrefix = "Answer could not be generated"
)

// Answerer produces a quick answer. *answer.Engine implements it.
type Answerer interface {
	QuickAnswer(ctx context.Context, question string, stream ai.StreamFunc) (string, error)
}

// Runner answers batches of questions on a bounded pool.
type Runner struct {
	answerer      Answerer
	pool          *ants.Pool
	workers       int
	timeout       time.Duration
	failurePrefix string
	progress      io.Writer
	interval      int
	logger        *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithWorkers sets the number of concurrent questions.
// Default is 4.
func WithWorkers(n int) Option {
	return func(r *Runner) error {
		if n < 1 {
			return fmt.Errorf("%w: workers must be at least 1", ErrInvalidOption)
		}
		r.workers = n
		return nil
	}
}

// WithTimeout sets the per-question timeout.
// Default is 60 seconds.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) error {
		if d <= 0 {
			return fmt.Errorf("%w: timeout must be positive", ErrInvalidOption)
		}
		r.timeout = d
		return nil
	}
}

// WithFailurePrefix sets the text that starts a failed question's result.
func WithFailurePrefix(prefix string) Option {
	return func(r *Runner) error {
		r.failurePrefix = prefix
		return nil
	}
}

// WithProgress reports progress to w every interval answers.
func WithProgress(w io.Writer, interval int) Option {
	return func(r *Runner) error {
		r.progress = w
		r.interval = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a Runner. Call Release when done.
func NewRunner(answerer Answerer, opts ...Option) (*Runner, error) {
	if answerer == nil {
		return nil, ErrAnswererRequired
	}

	r := &Runner{
		answerer:      answerer,
		workers:       DefaultWorkers,
		timeout:       DefaultTimeout,
		failurePrefix: DefaultFailurePrefix,
		logger:        slog.Default().With("component", "batch"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(r.workers,
		ants.WithLogger(poolLogger{r.logger}),
		ants.WithPanicHandler(func(p any) {
			r.logger.Error("batch worker panicked", "panic", p)
		}))
	if err != nil {
		return nil, fmt.Errorf("create batch pool: %w", err)
	}
	r.pool = pool
	return r, nil
}

// Run answers every question and returns the results in input order. A
// question that fails or times out gets the failure prefix and the cause in
// its slot.
func (r *Runner) Run(ctx context.Context, questions []string) []string {
	results := make([]string, len(questions))

	var progress *Progress
	if r.progress != nil {
		progress = NewProgress(r.progress, len(questions), r.interval)
		progress.Start()
	}

	start := time.Now()
	var wg sync.WaitGroup
	for i, question := range questions {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			results[i] = r.answerOne(ctx, question)
			if progress != nil {
				progress.Done()
			}
		})
		if err != nil {
			wg.Done()
			results[i] = r.failure(err)
			r.logger.Error("failed to submit question", "index", i, "err", err)
		}
	}
	wg.Wait()

	if progress != nil {
		progress.Finish()
	}
	r.logger.Info("batch finished", "questions", len(questions), "elapsed", time.Since(start))
	return results
}

type reply struct {
	text string
	err  error
}

func (r *Runner) answerOne(ctx context.Context, question string) string {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	replies := make(chan reply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				replies <- reply{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		text, err := r.answerer.QuickAnswer(qctx, question, nil)
		replies <- reply{text: text, err: err}
	}()

	select {
	case rep := <-replies:
		if rep.err != nil {
			r.logger.Warn("question failed", "question", question, "err", rep.err)
			return r.failure(rep.err)
		}
		return rep.text
	case <-qctx.Done():
		r.logger.Warn("question timed out", "question", question, "timeout", r.timeout)
		return r.failure(qctx.Err())
	}
}

func (r *Runner) failure(err error) string {
	return fmt.Sprintf("%s: %v", r.failurePrefix, err)
}

// Release stops the pool's workers.
func (r *Runner) Release() {
	r.pool.Release()
}

// poolLogger routes ants diagnostics to slog.
type poolLogger struct {
	logger *slog.Logger
}

func (l poolLogger) Printf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "source", "ants")
}
