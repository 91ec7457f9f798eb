package answer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/core"
	"github.com/poiesic/verbatim/render"
	"github.com/poiesic/verbatim/retrieval"
	"github.com/poiesic/verbatim/selection"
)

// Answer answers question with the full pipeline.
//
// With a nil stream the answer text is returned. With a non-nil stream the
// text is delivered through it and "" is returned. The error is non-nil only
// for programmer errors such as a nil context; every runtime failure becomes
// a user-facing message.
func (e *Engine) Answer(ctx context.Context, question string, stream ai.StreamFunc) (string, error) {
	res, err := e.AnswerWithMonitor(ctx, question, stream, nil)
	if err != nil || stream != nil {
		return "", err
	}
	return res.Body, nil
}

// AnswerWithMonitor is Answer with observation hooks. It returns the full
// result, including citations and the tier that produced the body. In
// streaming mode Body holds everything that was delivered to stream.
func (e *Engine) AnswerWithMonitor(ctx context.Context, question string, stream ai.StreamFunc, monitor Monitor) (res core.AnswerResult, err error) {
	if ctx == nil {
		return core.AnswerResult{}, ErrNilContext
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("answer panicked", "panic", r, "stack", string(debug.Stack()))
			res = core.AnswerResult{Body: e.messages.InternalError, Tier: core.TierNone}
			err = nil
		}
	}()

	monitor.Start(question)
	res = e.answer(ctx, question, stream, monitor)
	monitor.Finish(res)
	return res, nil
}

func (e *Engine) answer(ctx context.Context, question string, stream ai.StreamFunc, monitor Monitor) core.AnswerResult {
	if utf8.RuneCountInString(strings.TrimSpace(question)) < MinQuestionLength {
		return e.message(e.messages.InvalidQuestion, stream)
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(question); ok {
			monitor.CacheHit(question)
			e.logger.Debug("answer served from cache", "question", question)
			e.deliver(stream, cached)
			return core.AnswerResult{Body: cached, Tier: core.TierCache, Cached: true}
		}
	}

	q := e.normalizer.Parse(question)
	monitor.AfterKeywords(q)

	passages, err := retrieval.Search(ctx, e.retriever, question, e.search)
	if err != nil {
		e.logger.Error("retrieval failed", "err", err)
		return e.message(fmt.Sprintf("%s: %v", e.messages.RetrievalUnavailable, err), stream)
	}
	passages = e.usable(passages)
	monitor.AfterRetrieval(passages)

	if len(passages) == 0 {
		res := e.message(e.messages.NoInformation, stream)
		if stream == nil {
			e.store(ctx, question, res.Body)
		}
		return res
	}

	ranked := e.ranker.Rank(ctx, q, passages)
	monitor.AfterRanking(ranked)

	filtered := selection.Filter(ranked, q, e.budget)
	monitor.AfterFilter(filtered)

	cited := filtered[:min(len(filtered), SourceCount)]
	sources := render.FormatSources(cited, e.labels)
	plan := e.plan(q, question, e.assembler.Assemble(filtered))

	if stream != nil {
		if streamer, ok := e.completer.(ai.Streamer); ok {
			return e.stream(ctx, streamer, plan[0], &plan[len(plan)-1], ranked, cited, sources, stream, monitor)
		}
	}

	var res core.AnswerResult
	body, tier := e.runChain(ctx, plan, monitor)
	if tier == core.TierNone {
		res = core.AnswerResult{
			Body:     render.RawExcerpt(ranked, e.labels, ExcerptCount, ExcerptRunes),
			Tier:     core.TierRawExcerpt,
			Degraded: true,
		}
	} else {
		res = core.AnswerResult{
			Body:      body + "\n\n" + sources,
			Citations: render.Citations(cited),
			Tier:      tier,
			Degraded:  tier != core.TierPrimary,
		}
		if stream == nil {
			e.store(ctx, question, res.Body)
		}
	}

	e.deliver(stream, res.Body)
	return res
}

// plan builds the blocking tier chain for one question.
func (e *Engine) plan(q core.Query, question, block string) []tierSpec {
	primary, primaryErr := e.prompts.PrimaryPrompt(q, block)
	secondary, secondaryErr := e.prompts.SecondaryPrompt(question, truncateRunes(block, SecondaryContextLimit))
	emergency, emergencyErr := e.prompts.EmergencyPrompt(question)

	return []tierSpec{
		{
			tier:      core.TierPrimary,
			completer: e.completer,
			prompt:    primary,
			promptErr: primaryErr,
			timeout:   e.timeouts.Primary,
			minLength: MinResponseLength,
		},
		{
			tier:      core.TierSecondary,
			completer: e.completer,
			prompt:    secondary,
			promptErr: secondaryErr,
			timeout:   e.timeouts.Secondary,
		},
		{
			tier:      core.TierEmergency,
			completer: e.emergency,
			prompt:    emergency,
			promptErr: emergencyErr,
			timeout:   e.timeouts.Emergency,
		},
	}
}

// stream sends the primary prompt to the streaming completer without tier
// timeouts. A failed stream continues with the emergency tier, when there is
// one, through the same callback. The raw excerpt of excerpt is the last
// resort. Streamed answers are never cached.
func (e *Engine) stream(ctx context.Context, streamer ai.Streamer, primary tierSpec, emergency *tierSpec, excerpt, cited []core.Passage, sources string, fn ai.StreamFunc, monitor Monitor) core.AnswerResult {
	var (
		body    strings.Builder
		sinkErr error
	)
	forward := func(chunk string) error {
		if err := fn(chunk); err != nil {
			sinkErr = err
			return err
		}
		body.WriteString(chunk)
		return nil
	}
	result := func(tier core.Tier) core.AnswerResult {
		res := core.AnswerResult{
			Body:     body.String(),
			Tier:     tier,
			Degraded: tier != core.TierPrimary,
		}
		if tier == core.TierPrimary || tier == core.TierEmergency {
			res.Citations = render.Citations(cited)
		}
		return res
	}

	start := time.Now()
	err := primary.promptErr
	if err == nil {
		err = streamer.Stream(ctx, primary.prompt, forward)
	}
	if err == nil && strings.TrimSpace(body.String()) == "" {
		err = ErrDegenerateResponse
	}
	monitor.TierAttempt(core.TierPrimary, streamOutcome(core.TierPrimary, err), time.Since(start))
	if err == nil {
		_ = forward("\n\n" + sources)
		return result(core.TierPrimary)
	}
	if sinkErr != nil {
		e.logger.Debug("stream consumer stopped", "err", sinkErr)
		return result(core.TierPrimary)
	}
	if body.Len() > 0 {
		if forward("\n\n") != nil {
			return result(core.TierPrimary)
		}
	}
	if emergency == nil {
		e.logger.Warn("streaming failed, returning raw excerpt", "err", err)
		_ = forward(render.RawExcerpt(excerpt, e.labels, ExcerptCount, ExcerptRunes))
		return result(core.TierRawExcerpt)
	}
	e.logger.Warn("streaming failed, switching to emergency tier", "err", err)

	start = time.Now()
	mark := body.Len()
	err = emergency.promptErr
	if err == nil {
		err = e.streamEmergency(ctx, emergency.prompt, forward)
	}
	if err == nil && strings.TrimSpace(body.String()[mark:]) == "" {
		err = ErrDegenerateResponse
	}
	monitor.TierAttempt(core.TierEmergency, streamOutcome(core.TierEmergency, err), time.Since(start))
	if err == nil {
		_ = forward("\n\n" + sources)
		return result(core.TierEmergency)
	}
	if sinkErr != nil {
		return result(core.TierEmergency)
	}
	e.logger.Warn("emergency tier failed, returning raw excerpt", "err", err)

	_ = forward(render.RawExcerpt(excerpt, e.labels, ExcerptCount, ExcerptRunes))
	return result(core.TierRawExcerpt)
}

// streamEmergency streams from the emergency completer when it can, and
// otherwise forwards its blocking output as one chunk.
func (e *Engine) streamEmergency(ctx context.Context, prompt string, fn ai.StreamFunc) error {
	if s, ok := e.emergency.(ai.Streamer); ok {
		return s.Stream(ctx, prompt, fn)
	}
	ectx, cancel := context.WithTimeout(ctx, e.timeouts.Emergency)
	defer cancel()
	text, err := e.emergency.Complete(ectx, prompt)
	if err != nil {
		return err
	}
	return fn(strings.TrimSpace(text))
}

func streamOutcome(tier core.Tier, err error) Outcome {
	if err == nil {
		return Outcome{}
	}
	kind := KindFailure
	if errors.Is(err, ErrDegenerateResponse) {
		kind = KindDegenerate
	}
	return failed(tier, kind, err)
}

// QuickAnswer answers question from fewer passages with a short
// instruction and a single generation attempt. A leading "!" is ignored.
// Stream and error semantics match Answer.
func (e *Engine) QuickAnswer(ctx context.Context, question string, stream ai.StreamFunc) (string, error) {
	res, err := e.QuickAnswerWithMonitor(ctx, question, stream, nil)
	if err != nil || stream != nil {
		return "", err
	}
	return res.Body, nil
}

// QuickAnswerWithMonitor is QuickAnswer with observation hooks.
func (e *Engine) QuickAnswerWithMonitor(ctx context.Context, question string, stream ai.StreamFunc, monitor Monitor) (res core.AnswerResult, err error) {
	if ctx == nil {
		return core.AnswerResult{}, ErrNilContext
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("quick answer panicked", "panic", r, "stack", string(debug.Stack()))
			res = core.AnswerResult{Body: e.messages.InternalError, Tier: core.TierNone}
			err = nil
		}
	}()

	monitor.Start(question)
	res = e.quick(ctx, question, stream, monitor)
	monitor.Finish(res)
	return res, nil
}

func (e *Engine) quick(ctx context.Context, question string, stream ai.StreamFunc, monitor Monitor) core.AnswerResult {
	question = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(question), "!"))
	if utf8.RuneCountInString(question) < MinQuestionLength {
		return e.message(e.messages.InvalidQuestion, stream)
	}

	q := e.normalizer.Parse(question)
	monitor.AfterKeywords(q)

	passages, err := retrieval.Search(ctx, e.retriever, question, e.quickSearch)
	if err != nil {
		e.logger.Error("quick retrieval failed", "err", err)
		return e.message(fmt.Sprintf("%s: %v", e.messages.RetrievalUnavailable, err), stream)
	}
	passages = e.usable(passages)
	monitor.AfterRetrieval(passages)
	if len(passages) == 0 {
		return e.message(e.messages.NoInformation, stream)
	}

	ranked := e.ranker.Rank(ctx, q, passages)
	monitor.AfterRanking(ranked)

	docs := ranked[:min(len(ranked), QuickPassages)]
	monitor.AfterFilter(docs)
	cited := docs[:min(len(docs), QuickSourceCount)]

	prompt, promptErr := e.prompts.QuickPrompt(question, e.assembler.Assemble(docs))
	spec := tierSpec{
		tier:      core.TierPrimary,
		completer: e.completer,
		prompt:    prompt,
		promptErr: promptErr,
		timeout:   e.timeouts.Primary,
	}

	if stream != nil {
		if streamer, ok := e.completer.(ai.Streamer); ok {
			return e.stream(ctx, streamer, spec, nil, docs, cited, render.FormatSources(cited, e.labels), stream, monitor)
		}
	}

	var res core.AnswerResult
	body, tier := e.runChain(ctx, []tierSpec{spec}, monitor)
	if tier == core.TierNone {
		res = core.AnswerResult{
			Body:     render.RawExcerpt(docs, e.labels, ExcerptCount, ExcerptRunes),
			Tier:     core.TierRawExcerpt,
			Degraded: true,
		}
	} else {
		res = core.AnswerResult{
			Body:      body + "\n\n" + render.FormatSources(cited, e.labels),
			Citations: render.Citations(cited),
			Tier:      tier,
		}
	}
	e.deliver(stream, res.Body)
	return res
}

// message builds a result that carries a fixed user-facing message.
func (e *Engine) message(text string, stream ai.StreamFunc) core.AnswerResult {
	e.deliver(stream, text)
	return core.AnswerResult{Body: text, Tier: core.TierNone}
}

// deliver sends text as a single chunk when streaming.
func (e *Engine) deliver(stream ai.StreamFunc, text string) {
	if stream == nil {
		return
	}
	if err := stream(text); err != nil {
		e.logger.Debug("stream consumer stopped", "err", err)
	}
}

func (e *Engine) store(ctx context.Context, question, body string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Put(ctx, question, body); err != nil {
		e.logger.Warn("failed to cache answer", "err", err)
	}
}

// usable drops passages that fail validation, such as blank text.
func (e *Engine) usable(passages []core.Passage) []core.Passage {
	out := passages[:0:0]
	for i := range passages {
		if err := core.ValidatePassage(&passages[i]); err != nil {
			e.logger.Debug("dropping retrieved passage", "source", passages[i].SourceID, "err", err)
			continue
		}
		out = append(out, passages[i])
	}
	return out
}
