package verbatim

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/verbatim/ai/mock"
	"github.com/poiesic/verbatim/cache"
	"github.com/poiesic/verbatim/config"
	"github.com/poiesic/verbatim/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticRetriever returns the same passages for every question.
type staticRetriever struct {
	mu       sync.Mutex
	passages []core.Passage
	calls    int
}

func (r *staticRetriever) Retrieve(_ context.Context, _ string) ([]core.Passage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return append([]core.Passage(nil), r.passages...), nil
}

func testPassages() []core.Passage {
	return []core.Passage{
		{Text: "The inflation numbers went up sharply this quarter", Speaker: "Ayla", Time: "0:01:00-0:01:30", SourceID: "ep1.txt"},
		{Text: "Inflation hurt small businesses the most", Speaker: "Baran", Time: "0:05:00-0:05:20", SourceID: "ep2.txt"},
	}
}

func newTestService(t *testing.T, store cache.Store) (*Service, *mock.MockStreamer, *staticRetriever) {
	t.Helper()
	streamer := mock.NewMockStreamer()
	provider := mock.NewMockProviderWithServices(streamer, mock.NewMockCompleter(), nil)
	retriever := &staticRetriever{passages: testPassages()}

	cfg := config.Default()
	cfg.Cache.Store = config.StoreMemory

	svc, err := New(cfg,
		WithProvider(provider),
		WithRetriever(retriever),
		WithStore(store))
	require.NoError(t, err)
	return svc, streamer, retriever
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Language = "de"

	svc, err := New(cfg)
	assert.Error(t, err)
	assert.Nil(t, svc)
}

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := OpenStore(config.CacheConfig{Store: config.StoreMemory}, nil)
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		store, err := OpenStore(config.CacheConfig{Store: config.StoreSQLite, Path: path}, nil)
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})
}

func TestService_Answer(t *testing.T) {
	store := cache.NewMemoryStore(nil)
	svc, streamer, retriever := newTestService(t, store)

	ctx := context.Background()
	out, err := svc.Answer(ctx, "How did inflation affect people?", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, mock.DefaultAnswer))
	assert.Contains(t, out, "ep1.txt")
	assert.Equal(t, 1, streamer.CallCount())
	assert.Equal(t, 1, retriever.calls)

	// Same question differing only in case and whitespace is served from cache.
	again, err := svc.Answer(ctx, "  how did INFLATION affect people?  ", nil)
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Equal(t, 1, streamer.CallCount())
	assert.Equal(t, 1, retriever.calls)

	stats := svc.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)

	require.NoError(t, svc.FlushCache(ctx))
	assert.NotEmpty(t, store.Entries())

	require.NoError(t, svc.ClearCache(ctx))
	assert.Empty(t, store.Entries())
	assert.Equal(t, 0, svc.CacheStats().Working)

	require.NoError(t, svc.Close())
	assert.True(t, store.Closed())
}

func TestService_AnswerAll(t *testing.T) {
	svc, _, _ := newTestService(t, cache.NewMemoryStore(nil))
	defer svc.Close()

	questions := []string{"What about inflation?", "x", "Who talked about businesses?"}
	answers := svc.AnswerAll(context.Background(), questions)

	require.Len(t, answers, len(questions))
	assert.True(t, strings.HasPrefix(answers[0], mock.DefaultAnswer))
	assert.Equal(t, svc.engine.Messages().InvalidQuestion, answers[1])
	assert.True(t, strings.HasPrefix(answers[2], mock.DefaultAnswer))
}

func TestService_QuickAnswer(t *testing.T) {
	svc, streamer, _ := newTestService(t, cache.NewMemoryStore(nil))
	defer svc.Close()

	var chunks []string
	_, err := svc.QuickAnswer(context.Background(), "What about inflation?", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
	assert.Contains(t, strings.Join(chunks, ""), "ep2.txt")
	assert.Equal(t, 1, streamer.CallCount())
}

func TestService_Labels(t *testing.T) {
	svc, _, _ := newTestService(t, cache.NewMemoryStore(nil))
	defer svc.Close()

	assert.Equal(t, "en", svc.Config().Language)
	assert.NotEmpty(t, svc.Labels().SourcesHeader)
}
