package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/core"
)

// Outcome is the result of one tier attempt. Err is nil on success.
type Outcome struct {
	Text string
	Err  *GenerationError
}

// OK reports whether the attempt produced usable text.
func (o Outcome) OK() bool {
	return o.Err == nil
}

func failed(tier core.Tier, kind ErrorKind, err error) Outcome {
	return Outcome{Err: &GenerationError{Tier: tier, Kind: kind, Err: err}}
}

// tierSpec is one step of the generation chain.
type tierSpec struct {
	tier      core.Tier
	completer ai.Completer
	prompt    string
	// promptErr is set when the prompt could not be rendered; the tier fails without a call.
	promptErr error
	timeout   time.Duration
	minLength int
}

// attempt runs one completion on the worker pool and waits at most
// spec.timeout for it. A worker that outlives the wait finishes into a
// buffered channel nobody reads.
func (e *Engine) attempt(ctx context.Context, spec tierSpec) Outcome {
	if spec.promptErr != nil {
		return failed(spec.tier, KindFailure, spec.promptErr)
	}
	if spec.completer == nil {
		return failed(spec.tier, KindFailure, ErrCompleterRequired)
	}

	actx, cancel := context.WithTimeout(ctx, spec.timeout)
	defer cancel()

	results := make(chan Outcome, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				results <- failed(spec.tier, KindFailure, fmt.Errorf("completer panic: %v", r))
			}
		}()
		text, err := spec.completer.Complete(actx, spec.prompt)
		results <- checkCompletion(spec, text, err)
	}

	// Submit blocks while every worker is busy, so it runs under the same
	// deadline as the completion. A late submit still hands the worker a
	// cancelled context.
	submitted := make(chan error, 1)
	go func(done chan<- error) {
		done <- e.pool.Submit(task)
	}(submitted)

	for {
		select {
		case err := <-submitted:
			if err != nil {
				return failed(spec.tier, KindRejected, fmt.Errorf("submit attempt: %w", err))
			}
			submitted = nil
		case out := <-results:
			return out
		case <-actx.Done():
			if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
				return failed(spec.tier, KindTimeout, fmt.Errorf("no answer after %s", spec.timeout))
			}
			return failed(spec.tier, KindFailure, ctx.Err())
		}
	}
}

func checkCompletion(spec tierSpec, text string, err error) Outcome {
	if err != nil {
		return failed(spec.tier, KindFailure, err)
	}
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < max(spec.minLength, 1) {
		return failed(spec.tier, KindDegenerate, fmt.Errorf("%w: %d characters", ErrDegenerateResponse, n))
	}
	return Outcome{Text: text}
}

// runChain tries each tier in order and returns the first success. The
// returned tier is TierNone when every tier failed.
func (e *Engine) runChain(ctx context.Context, plan []tierSpec, monitor Monitor) (string, core.Tier) {
	for _, spec := range plan {
		start := time.Now()
		out := e.attempt(ctx, spec)
		monitor.TierAttempt(spec.tier, out, time.Since(start))
		if out.OK() {
			return out.Text, spec.tier
		}
		e.logger.Warn("generation tier failed",
			"tier", spec.tier.String(),
			"kind", out.Err.Kind.String(),
			"elapsed", time.Since(start),
			"err", out.Err.Err)
	}
	return "", core.TierNone
}

// truncateRunes cuts s to at most n runes with no marker.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
