package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/ai/mock"
	"github.com/poiesic/verbatim/cache"
	"github.com/poiesic/verbatim/core"
	"github.com/poiesic/verbatim/render"
	"github.com/poiesic/verbatim/retrieval"
	"github.com/poiesic/verbatim/retrieval/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const ep1Question = "enflasyon nasıl etkiledi"

func ep1Passage() core.Passage {
	return core.Passage{
		Text:     "Enflasyon rakamları arttı",
		Speaker:  "A",
		Time:     "0:01:00-0:01:30",
		SourceID: "ep1.txt",
	}
}

func manyPassages(n int) []core.Passage {
	out := make([]core.Passage, n)
	for i := range out {
		out[i] = core.Passage{
			Text:     fmt.Sprintf("Enflasyon bölüm %d içinde konuşuldu", i),
			Speaker:  "B",
			SourceID: fmt.Sprintf("ep%d.txt", i),
		}
	}
	return out
}

// recordingMonitor captures what the engine reports through Monitor.
type recordingMonitor struct {
	noopMonitor
	mu        sync.Mutex
	started   bool
	finished  bool
	cacheHits int
	query     core.Query
	ranked    []core.Passage
	filtered  []core.Passage
	tiers     []core.Tier
	outcomes  []Outcome
	result    core.AnswerResult
}

func (m *recordingMonitor) Start(_ string)                       { m.started = true }
func (m *recordingMonitor) CacheHit(_ string)                    { m.cacheHits++ }
func (m *recordingMonitor) AfterKeywords(q core.Query)           { m.query = q }
func (m *recordingMonitor) AfterRanking(passages []core.Passage) { m.ranked = passages }
func (m *recordingMonitor) AfterFilter(passages []core.Passage)  { m.filtered = passages }

func (m *recordingMonitor) Finish(result core.AnswerResult) {
	m.finished = true
	m.result = result
}

func (m *recordingMonitor) TierAttempt(tier core.Tier, out Outcome, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers = append(m.tiers, tier)
	m.outcomes = append(m.outcomes, out)
}

// completerProvider swaps the primary completer of a mock provider.
type completerProvider struct {
	ai.Provider
	completer ai.Completer
}

func (p completerProvider) Completer() ai.Completer { return p.completer }

func newTestEngine(t *testing.T, r retrieval.Retriever, p ai.Provider, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(r, p, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(context.Background(), cache.NewMemoryStore(nil))
	require.NoError(t, err)
	return c
}

func newProvider() (*mock.MockStreamer, *mock.MockCompleter, ai.Provider) {
	completer := mock.NewMockStreamer()
	emergency := mock.NewMockCompleter()
	return completer, emergency, mock.NewMockProviderWithServices(completer, emergency, nil)
}

func TestNewEngine(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	_, _, provider := newProvider()

	t.Run("requires retriever", func(t *testing.T) {
		_, err := NewEngine(nil, provider)
		assert.ErrorIs(t, err, ErrRetrieverRequired)
	})

	t.Run("requires provider", func(t *testing.T) {
		_, err := NewEngine(r, nil)
		assert.ErrorIs(t, err, ErrProviderRequired)
	})

	t.Run("rejects bad options", func(t *testing.T) {
		_, err := NewEngine(r, provider, WithPoolSize(0))
		assert.ErrorIs(t, err, ErrInvalidOption)

		_, err = NewEngine(r, provider, WithTimeouts(Timeouts{Primary: time.Second}))
		assert.ErrorIs(t, err, ErrInvalidOption)

		_, err = NewEngine(r, provider, WithSearch(retrieval.SearchConfig{Mode: retrieval.ModeMMR}))
		assert.Error(t, err)
	})

	t.Run("emergency defaults to primary completer", func(t *testing.T) {
		completer := mock.NewMockStreamer()
		e := newTestEngine(t, r, mock.NewMockProviderWithServices(completer, nil, nil))
		assert.Same(t, completer, e.emergency)
	})
}

func TestAnswer_EndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	r.EXPECT().Retrieve(gomock.Any(), ep1Question).Return([]core.Passage{ep1Passage()}, nil).Times(1)

	completer, _, provider := newProvider()
	e := newTestEngine(t, r, provider)
	monitor := &recordingMonitor{}

	res, err := e.AnswerWithMonitor(context.Background(), ep1Question, nil, monitor)
	require.NoError(t, err)

	hasStem := false
	for kw := range monitor.query.Keywords {
		if strings.HasPrefix(kw, "enflas") {
			hasStem = true
		}
	}
	assert.True(t, hasStem, "keywords %v", monitor.query.KeywordList())

	require.Len(t, monitor.ranked, 1)
	assert.Greater(t, monitor.ranked[0].Score, 0.1)
	assert.Len(t, monitor.filtered, 1)

	assert.Equal(t, core.TierPrimary, res.Tier)
	assert.False(t, res.Degraded)
	assert.True(t, strings.HasPrefix(res.Body, mock.DefaultAnswer+"\n\n"+render.EnglishLabels.SourcesHeader))
	assert.Contains(t, res.Body, "ep1.txt")
	assert.Contains(t, res.Body, "0:01:00-0:01:30")
	assert.Equal(t, []core.Citation{{SourceID: "ep1.txt", TimeRange: "0:01:00-0:01:30", Speaker: "A"}}, res.Citations)
	assert.True(t, monitor.started)
	assert.True(t, monitor.finished)

	prompts := completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "QUESTION: "+ep1Question)
	assert.Contains(t, prompts[0], "Enflasyon rakamları arttı")
}

func TestAnswer_ShortQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No expectations: any retrieval call fails the test.
	r := mocks.NewMockRetriever(ctrl)
	completer, _, provider := newProvider()
	c := newTestCache(t)
	e := newTestEngine(t, r, provider, WithCache(c))

	for _, q := range []string{"", " ", "a", "  ?  "} {
		got, err := e.Answer(context.Background(), q, nil)
		require.NoError(t, err)
		assert.Equal(t, EnglishMessages.InvalidQuestion, got)
	}
	assert.Zero(t, completer.CallCount())
	assert.Zero(t, c.Stats().Writes)
}

func TestAnswer_RetrievalUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	r.EXPECT().Retrieve(gomock.Any(), ep1Question).Return(nil, errors.New("connection refused"))

	completer, _, provider := newProvider()
	c := newTestCache(t)
	e := newTestEngine(t, r, provider, WithCache(c))

	got, err := e.Answer(context.Background(), ep1Question, nil)
	require.NoError(t, err)
	assert.Equal(t, EnglishMessages.RetrievalUnavailable+": connection refused", got)
	assert.Zero(t, completer.CallCount())
	assert.Zero(t, c.Stats().Writes)
	assert.Zero(t, c.Stats().Working)
}

func TestAnswer_NoPassages(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

	completer, _, provider := newProvider()
	c := newTestCache(t)
	e := newTestEngine(t, r, provider, WithCache(c))

	got, err := e.Answer(context.Background(), ep1Question, nil)
	require.NoError(t, err)
	assert.Equal(t, EnglishMessages.NoInformation, got)
	assert.Zero(t, completer.CallCount())
	assert.Equal(t, int64(1), c.Stats().Writes)

	// Served from the cache the second time.
	got, err = e.Answer(context.Background(), ep1Question, nil)
	require.NoError(t, err)
	assert.Equal(t, EnglishMessages.NoInformation, got)
}

func TestAnswer_BlankPassagesDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).
		Return([]core.Passage{{Text: "   ", SourceID: "ep9.txt"}}, nil)

	completer, _, provider := newProvider()
	e := newTestEngine(t, r, provider)

	got, err := e.Answer(context.Background(), ep1Question, nil)
	require.NoError(t, err)
	assert.Equal(t, EnglishMessages.NoInformation, got)
	assert.Zero(t, completer.CallCount())
}

func TestAnswer_CacheIdempotence(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	r.EXPECT().Retrieve(gomock.Any(), ep1Question).Return([]core.Passage{ep1Passage()}, nil).Times(1)

	completer, _, provider := newProvider()
	e := newTestEngine(t, r, provider, WithCache(newTestCache(t)))

	first, err := e.Answer(context.Background(), ep1Question, nil)
	require.NoError(t, err)
	require.Equal(t, 1, completer.CallCount())

	monitor := &recordingMonitor{}
	res, err := e.AnswerWithMonitor(context.Background(), "  Enflasyon nasıl etkiledi ", nil, monitor)
	require.NoError(t, err)

	assert.Equal(t, first, res.Body)
	assert.Equal(t, core.TierCache, res.Tier)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, monitor.cacheHits)
	assert.Equal(t, 1, completer.CallCount())
}

func TestAnswer_FallbackChain(t *testing.T) {
	passages := []core.Passage{ep1Passage()}

	t.Run("short primary falls to secondary", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := mocks.NewMockRetriever(ctrl)
		r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return(passages, nil)

		completer, emergency, provider := newProvider()
		completer.CompleteFunc = func(_ context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "ANALYSIS TASK") {
				return "too short", nil
			}
			return "A brief analysis of the inflation discussion.", nil
		}
		e := newTestEngine(t, r, provider)
		monitor := &recordingMonitor{}

		res, err := e.AnswerWithMonitor(context.Background(), ep1Question, nil, monitor)
		require.NoError(t, err)
		assert.Equal(t, core.TierSecondary, res.Tier)
		assert.True(t, res.Degraded)
		assert.True(t, strings.HasPrefix(res.Body, "A brief analysis of the inflation discussion."))
		assert.Equal(t, []core.Tier{core.TierPrimary, core.TierSecondary}, monitor.tiers)
		assert.Equal(t, KindDegenerate, monitor.outcomes[0].Err.Kind)
		assert.Zero(t, emergency.CallCount())

		prompts := completer.Prompts()
		require.Len(t, prompts, 2)
		assert.True(t, strings.HasPrefix(prompts[1], "System instruction: You are a transcript analysis expert."))
	})

	t.Run("timeouts fall to emergency", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := mocks.NewMockRetriever(ctrl)
		r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return(passages, nil)

		completer, emergency, provider := newProvider()
		completer.CompleteFunc = func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}
		emergency.CompleteFunc = func(_ context.Context, prompt string) (string, error) {
			return "Inflation went up.", nil
		}
		e := newTestEngine(t, r, provider, WithTimeouts(Timeouts{
			Primary:   20 * time.Millisecond,
			Secondary: 20 * time.Millisecond,
			Emergency: time.Second,
		}))
		monitor := &recordingMonitor{}

		res, err := e.AnswerWithMonitor(context.Background(), ep1Question, nil, monitor)
		require.NoError(t, err)
		assert.Equal(t, core.TierEmergency, res.Tier)
		assert.True(t, res.Degraded)
		assert.True(t, strings.HasPrefix(res.Body, "Inflation went up.\n\n"))
		require.Len(t, monitor.outcomes, 3)
		assert.Equal(t, KindTimeout, monitor.outcomes[0].Err.Kind)
		assert.Equal(t, KindTimeout, monitor.outcomes[1].Err.Kind)
		assert.Equal(t, []string{"Question: " + ep1Question + "\n\nAnswer:"}, emergency.Prompts())
	})

	t.Run("every tier failing returns the raw excerpt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := mocks.NewMockRetriever(ctrl)
		r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return(passages, nil)

		completer, emergency, provider := newProvider()
		completer.CompleteFunc = func(context.Context, string) (string, error) {
			return "", errors.New("model unavailable")
		}
		emergency.CompleteFunc = func(context.Context, string) (string, error) {
			panic("emergency model crashed")
		}
		c := newTestCache(t)
		e := newTestEngine(t, r, provider, WithCache(c))
		monitor := &recordingMonitor{}

		res, err := e.AnswerWithMonitor(context.Background(), ep1Question, nil, monitor)
		require.NoError(t, err)
		assert.Equal(t, core.TierRawExcerpt, res.Tier)
		assert.True(t, res.Degraded)
		assert.NotEmpty(t, res.Body)
		assert.True(t, strings.HasPrefix(res.Body, render.EnglishLabels.ExcerptIntro))
		assert.Contains(t, res.Body, "- Source: ep1.txt")
		assert.Contains(t, res.Body, "- Time: 0:01:00-0:01:30")
		assert.True(t, strings.HasSuffix(res.Body, render.EnglishLabels.ExcerptApology))

		require.Len(t, monitor.outcomes, 3)
		assert.Equal(t, KindFailure, monitor.outcomes[0].Err.Kind)
		assert.ErrorContains(t, monitor.outcomes[2].Err, "panic")
		assert.Zero(t, c.Stats().Writes)
	})
}

func TestAnswer_HungCompleterFillsPool(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return([]core.Passage{ep1Passage()}, nil)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	hang := func(context.Context, string) (string, error) {
		<-release
		return "A late answer that nobody reads.", nil
	}

	completer, emergency, provider := newProvider()
	completer.CompleteFunc = hang
	emergency.CompleteFunc = hang
	e := newTestEngine(t, r, provider,
		WithPoolSize(2),
		WithTimeouts(Timeouts{
			Primary:   50 * time.Millisecond,
			Secondary: 50 * time.Millisecond,
			Emergency: 50 * time.Millisecond,
		}))
	monitor := &recordingMonitor{}

	start := time.Now()
	res, err := e.AnswerWithMonitor(context.Background(), ep1Question, nil, monitor)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, core.TierRawExcerpt, res.Tier)

	require.Len(t, monitor.outcomes, 3)
	for _, out := range monitor.outcomes {
		assert.Equal(t, KindTimeout, out.Err.Kind)
	}
}

func TestAnswer_PanicIsRecovered(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, string) ([]core.Passage, error) {
		panic("index corrupted")
	})

	_, _, provider := newProvider()
	e := newTestEngine(t, r, provider)

	got, err := e.Answer(context.Background(), ep1Question, nil)
	require.NoError(t, err)
	assert.Equal(t, EnglishMessages.InternalError, got)
}

func TestAnswer_NilContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, _, provider := newProvider()
	e := newTestEngine(t, mocks.NewMockRetriever(ctrl), provider)

	var ctx context.Context
	_, err := e.Answer(ctx, ep1Question, nil)
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = e.QuickAnswer(ctx, ep1Question, nil)
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestAnswer_Streaming(t *testing.T) {
	t.Run("primary stream", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := mocks.NewMockRetriever(ctrl)
		r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return([]core.Passage{ep1Passage()}, nil)

		_, _, provider := newProvider()
		c := newTestCache(t)
		e := newTestEngine(t, r, provider, WithCache(c))

		var chunks []string
		got, err := e.Answer(context.Background(), ep1Question, func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Greater(t, len(chunks), 2)

		streamed := strings.Join(chunks, "")
		assert.True(t, strings.HasPrefix(streamed, mock.DefaultAnswer))
		assert.Contains(t, streamed, "ep1.txt")
		assert.Zero(t, c.Stats().Writes)
	})

	t.Run("mid-stream failure continues with emergency", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := mocks.NewMockRetriever(ctrl)
		r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return([]core.Passage{ep1Passage()}, nil)

		completer, emergency, provider := newProvider()
		completer.StreamFunc = func(_ context.Context, _ string, fn ai.StreamFunc) error {
			if err := fn("Inflation "); err != nil {
				return err
			}
			return errors.New("connection reset")
		}
		emergency.CompleteFunc = func(context.Context, string) (string, error) {
			return "Prices rose in the first episode.", nil
		}
		e := newTestEngine(t, r, provider)

		var chunks []string
		res, err := e.AnswerWithMonitor(context.Background(), ep1Question, func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, core.TierEmergency, res.Tier)
		assert.True(t, res.Degraded)

		streamed := strings.Join(chunks, "")
		assert.True(t, strings.HasPrefix(streamed, "Inflation \n\nPrices rose in the first episode."))
		assert.Equal(t, streamed, res.Body)
		assert.Equal(t, 1, emergency.CallCount())
	})

	t.Run("consumer error stops the stream", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := mocks.NewMockRetriever(ctrl)
		r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return([]core.Passage{ep1Passage()}, nil)

		_, emergency, provider := newProvider()
		e := newTestEngine(t, r, provider)

		calls := 0
		_, err := e.Answer(context.Background(), ep1Question, func(string) error {
			calls++
			return errors.New("client went away")
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Zero(t, emergency.CallCount())
	})

	t.Run("non-streaming completer delivers one chunk", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := mocks.NewMockRetriever(ctrl)
		r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return([]core.Passage{ep1Passage()}, nil)

		_, _, base := newProvider()
		provider := completerProvider{Provider: base, completer: mock.NewMockCompleter()}
		e := newTestEngine(t, r, provider)

		var chunks []string
		got, err := e.Answer(context.Background(), ep1Question, func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})
		require.NoError(t, err)
		assert.Empty(t, got)
		require.Len(t, chunks, 1)
		assert.True(t, strings.HasPrefix(chunks[0], mock.DefaultAnswer+"\n\n"))
	})
}

func TestQuickAnswer(t *testing.T) {
	t.Run("single attempt over the first passages", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := mocks.NewMockConfigurableRetriever(ctrl)
		r.EXPECT().RetrieveWith(gomock.Any(), "enflasyon nasıl", retrieval.QuickSearch()).Return(manyPassages(12), nil)

		completer, _, provider := newProvider()
		e := newTestEngine(t, r, provider)

		got, err := e.QuickAnswer(context.Background(), "  !enflasyon nasıl", nil)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, mock.DefaultAnswer+"\n\n"))
		assert.Contains(t, got, "Total 5 transcript passages used, from 5 different files.")

		prompts := completer.Prompts()
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], EnglishPrompts().QuickSystem)
		assert.Contains(t, prompts[0], "ep9.txt")
		assert.NotContains(t, prompts[0], "ep10.txt")
		assert.NotContains(t, prompts[0], "ANALYSIS TASK")
	})

	t.Run("ranks before taking the first passages", func(t *testing.T) {
		passages := make([]core.Passage, 0, 12)
		for i := range 11 {
			passages = append(passages, core.Passage{
				Text:     fmt.Sprintf("Faiz kararı %d hakkında konuşuldu", i),
				Speaker:  "B",
				SourceID: fmt.Sprintf("noise%d.txt", i),
			})
		}
		passages = append(passages, ep1Passage())

		ctrl := gomock.NewController(t)
		r := mocks.NewMockConfigurableRetriever(ctrl)
		r.EXPECT().RetrieveWith(gomock.Any(), gomock.Any(), gomock.Any()).Return(passages, nil)

		completer, _, provider := newProvider()
		e := newTestEngine(t, r, provider)
		monitor := &recordingMonitor{}

		res, err := e.QuickAnswerWithMonitor(context.Background(), ep1Question, nil, monitor)
		require.NoError(t, err)
		require.NotEmpty(t, monitor.ranked)
		assert.Equal(t, "ep1.txt", monitor.ranked[0].SourceID)
		require.NotEmpty(t, res.Citations)
		assert.Equal(t, "ep1.txt", res.Citations[0].SourceID)

		prompts := completer.Prompts()
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], "ep1.txt")
	})

	t.Run("failure returns the raw excerpt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		r := mocks.NewMockConfigurableRetriever(ctrl)
		r.EXPECT().RetrieveWith(gomock.Any(), gomock.Any(), gomock.Any()).Return(manyPassages(3), nil)

		completer, emergency, provider := newProvider()
		completer.CompleteFunc = func(context.Context, string) (string, error) {
			return "", errors.New("model unavailable")
		}
		e := newTestEngine(t, r, provider)

		res, err := e.QuickAnswerWithMonitor(context.Background(), "enflasyon", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, core.TierRawExcerpt, res.Tier)
		assert.True(t, strings.HasPrefix(res.Body, render.EnglishLabels.ExcerptIntro))
		assert.Equal(t, 1, completer.CallCount())
		assert.Zero(t, emergency.CallCount())
	})

	t.Run("bang only is invalid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, _, provider := newProvider()
		e := newTestEngine(t, mocks.NewMockConfigurableRetriever(ctrl), provider)

		got, err := e.QuickAnswer(context.Background(), "! a", nil)
		require.NoError(t, err)
		assert.Equal(t, EnglishMessages.InvalidQuestion, got)
	})
}

func TestAnswer_Turkish(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return([]core.Passage{ep1Passage()}, nil)

	completer, _, provider := newProvider()
	e := newTestEngine(t, r, provider, WithLanguage("tr"))

	got, err := e.Answer(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "Lütfen geçerli bir soru girin.", got)

	got, err = e.Answer(context.Background(), ep1Question, nil)
	require.NoError(t, err)
	assert.Contains(t, got, render.TurkishLabels.SourcesHeader)
	require.Len(t, completer.Prompts(), 1)
	assert.Contains(t, completer.Prompts()[0], "SORU: "+ep1Question)
}

func TestTimingMonitor(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockRetriever(ctrl)
	r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Return([]core.Passage{ep1Passage()}, nil)

	_, _, provider := newProvider()
	e := newTestEngine(t, r, provider)

	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	monitor := NewTimingMonitor(nil)
	monitor.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	_, err := e.AnswerWithMonitor(context.Background(), ep1Question, nil, monitor)
	require.NoError(t, err)

	var names []string
	for _, s := range monitor.Stages() {
		names = append(names, s.Name)
		assert.Equal(t, time.Second, s.Duration)
	}
	assert.Equal(t, []string{"keywords", "retrieval", "ranking", "filter", "generation:primary", "finalize"}, names)
	assert.Equal(t, 6*time.Second, monitor.Total())

	var b strings.Builder
	require.NoError(t, monitor.WriteReport(&b))
	assert.Contains(t, b.String(), "generation:primary")
	assert.Contains(t, b.String(), "(primary)")
}
