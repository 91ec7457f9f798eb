package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/answer"
	"github.com/poiesic/verbatim/config"
	"github.com/poiesic/verbatim/core"
	"github.com/poiesic/verbatim/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// fakeService answers every question with a fixed body, streamed in two chunks.
type fakeService struct {
	mu       sync.Mutex
	asked    []string
	quick    []string
	flushed  int
	err      error
	flushErr error
}

func (f *fakeService) respond(q string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error) {
	if f.err != nil {
		return core.AnswerResult{}, f.err
	}
	if monitor != nil {
		monitor.Start(q)
		monitor.AfterKeywords(core.Query{Raw: q})
	}
	body := "Answer to " + q
	if stream != nil {
		if err := stream("Answer to "); err != nil {
			return core.AnswerResult{}, err
		}
		if err := stream(q); err != nil {
			return core.AnswerResult{}, err
		}
	}
	res := core.AnswerResult{Body: body, Tier: core.TierPrimary}
	if monitor != nil {
		monitor.Finish(res)
	}
	return res, nil
}

func (f *fakeService) AnswerWithMonitor(_ context.Context, q string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error) {
	f.mu.Lock()
	f.asked = append(f.asked, q)
	f.mu.Unlock()
	return f.respond(q, stream, monitor)
}

func (f *fakeService) QuickAnswerWithMonitor(_ context.Context, q string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error) {
	f.mu.Lock()
	f.quick = append(f.quick, q)
	f.mu.Unlock()
	return f.respond(q, stream, monitor)
}

func (f *fakeService) FlushCache(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed++
	return f.flushErr
}

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	run := func(args ...string) error {
		app := &cli.App{
			Name: "verbatim",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
				&cli.StringFlag{Name: "log-format", Value: "text"},
			},
			Before: setupLogger,
			Action: func(*cli.Context) error { return nil },
		}
		return app.Run(append([]string{"verbatim"}, args...))
	}

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG"} {
			assert.NoError(t, run("--log-level", level), level)
		}
	})

	t.Run("debug level enables debug logging", func(t *testing.T) {
		require.NoError(t, run("--log-level", "debug"))
		assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("json format", func(t *testing.T) {
		assert.NoError(t, run("--log-format", "json"))
	})

	t.Run("invalid level", func(t *testing.T) {
		err := run("--log-level", "verbose")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("invalid format", func(t *testing.T) {
		err := run("--log-format", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log format")
	})
}

func TestNewApp(t *testing.T) {
	app := newApp()

	names := make(map[string]*cli.Command)
	for _, cmd := range app.Commands {
		names[cmd.Name] = cmd
	}
	for _, want := range []string{"ask", "quick", "batch", "shell", "serve", "cache"} {
		assert.Contains(t, names, want)
	}

	var sub []string
	for _, cmd := range names["cache"].Subcommands {
		sub = append(sub, cmd.Name)
	}
	assert.Equal(t, []string{"stats", "flush", "clear"}, sub)

	t.Run("log-level defaults to info", func(t *testing.T) {
		var levelFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "log-level" {
				levelFlag = f
			}
		}
		require.NotNil(t, levelFlag)
		assert.Equal(t, "info", levelFlag.Value)
	})

	t.Run("ask requires a question", func(t *testing.T) {
		err := newApp().Run([]string{"verbatim", "ask"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "question is required")
	})

	t.Run("batch requires questions", func(t *testing.T) {
		err := newApp().Run([]string{"verbatim", "batch"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no questions")
	})
}

func TestLoadConfig(t *testing.T) {
	run := func(args ...string) (*config.Config, error) {
		var cfg *config.Config
		var loadErr error
		app := newApp()
		app.Before = nil
		app.Commands = []*cli.Command{{
			Name: "probe",
			Action: func(c *cli.Context) error {
				cfg, loadErr = loadConfig(c)
				return nil
			},
		}}
		require.NoError(t, app.Run(append(append([]string{"verbatim"}, args...), "probe")))
		return cfg, loadErr
	}

	t.Run("defaults", func(t *testing.T) {
		cfg, err := run()
		require.NoError(t, err)
		assert.Equal(t, config.Default().Qdrant.Collection, cfg.Qdrant.Collection)
	})

	t.Run("flags override", func(t *testing.T) {
		cfg, err := run("--lang", "tr", "--no-persist")
		require.NoError(t, err)
		assert.Equal(t, "tr", cfg.Language)
		assert.Equal(t, config.StoreMemory, cfg.Cache.Store)
	})

	t.Run("store flag", func(t *testing.T) {
		cfg, err := run("--store", "sqlite")
		require.NoError(t, err)
		assert.Equal(t, config.StoreSQLite, cfg.Cache.Store)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "verbatim.yaml")
		require.NoError(t, os.WriteFile(path, []byte("language: tr\nqdrant:\n  collection: episodes\n"), 0o644))

		cfg, err := run("--config", path)
		require.NoError(t, err)
		assert.Equal(t, "tr", cfg.Language)
		assert.Equal(t, "episodes", cfg.Qdrant.Collection)
	})

	t.Run("invalid language", func(t *testing.T) {
		_, err := run("--lang", "de")
		assert.Error(t, err)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := run("--config", filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestAnswerOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("streams the answer", func(t *testing.T) {
		svc := &fakeService{}
		var out, errOut bytes.Buffer

		res, err := answerOnce(ctx, svc, "inflation?", answerOptions{stream: true}, &out, &errOut)
		require.NoError(t, err)
		assert.Equal(t, "Answer to inflation?\n", out.String())
		assert.Equal(t, "Answer to inflation?", res.Body)
		assert.Empty(t, errOut.String())
	})

	t.Run("prints the whole answer without streaming", func(t *testing.T) {
		svc := &fakeService{}
		var out, errOut bytes.Buffer

		_, err := answerOnce(ctx, svc, "inflation?", answerOptions{quick: true}, &out, &errOut)
		require.NoError(t, err)
		assert.Equal(t, "Answer to inflation?\n", out.String())
		assert.Equal(t, []string{"inflation?"}, svc.quick)
		assert.Empty(t, svc.asked)
	})

	t.Run("trace writes a timing report", func(t *testing.T) {
		svc := &fakeService{}
		var out, errOut bytes.Buffer

		_, err := answerOnce(ctx, svc, "inflation?", answerOptions{trace: true}, &out, &errOut)
		require.NoError(t, err)
		assert.Contains(t, errOut.String(), "--- timing ---")
		assert.Contains(t, errOut.String(), "keywords")
	})

	t.Run("save archives the answer", func(t *testing.T) {
		svc := &fakeService{}
		dir := filepath.Join(t.TempDir(), "analyses")
		var out, errOut bytes.Buffer

		_, err := answerOnce(ctx, svc, "inflation?", answerOptions{
			save:        true,
			analysisDir: dir,
			labels:      render.LabelsFor("en"),
		}, &out, &errOut)
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
		require.NoError(t, err)
		assert.Contains(t, string(data), "Question: inflation?")
		assert.Contains(t, string(data), "Answer to inflation?")
		assert.Contains(t, errOut.String(), "Analysis saved to")
	})

	t.Run("service error", func(t *testing.T) {
		svc := &fakeService{err: errors.New("boom")}
		var out, errOut bytes.Buffer

		_, err := answerOnce(ctx, svc, "inflation?", answerOptions{}, &out, &errOut)
		assert.EqualError(t, err, "boom")
	})
}

func TestReadQuestions(t *testing.T) {
	qs, err := readQuestions(strings.NewReader("first?\n\n  second?  \n\t\nthird?"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first?", "second?", "third?"}, qs)
}

func TestWriteBatch(t *testing.T) {
	var buf bytes.Buffer
	writeBatch(&buf, []string{"a?", "b?"}, []string{"A", "B"})
	assert.Equal(t, "=== 1. a? ===\nA\n\n=== 2. b? ===\nB\n\n", buf.String())
}

func newTestShell(t *testing.T, input string) (*shell, *fakeService, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ep1.txt"), []byte("Speaker A: hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ep2.txt"), []byte("Speaker B: hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	svc := &fakeService{}
	var out, errOut bytes.Buffer
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sh := &shell{
		svc:           svc,
		transcriptDir: dir,
		opts:          answerOptions{stream: true},
		now: func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		},
		in:     strings.NewReader(input),
		out:    &out,
		errOut: &errOut,
	}
	return sh, svc, &out, &errOut
}

func TestShell(t *testing.T) {
	t.Run("answers and exits", func(t *testing.T) {
		sh, svc, out, _ := newTestShell(t, "What about inflation?\nq\nnever asked\n")
		require.NoError(t, sh.run(context.Background()))

		assert.Equal(t, []string{"What about inflation?"}, svc.asked)
		assert.Equal(t, 1, svc.flushed)
		assert.Contains(t, out.String(), "Answer to What about inflation?")
		assert.Contains(t, out.String(), "[answered in 1.00 seconds]")
	})

	t.Run("exit words", func(t *testing.T) {
		for _, word := range []string{"q", "exit", "QUIT", "çıkış"} {
			sh, svc, _, _ := newTestShell(t, word+"\nignored?\n")
			require.NoError(t, sh.run(context.Background()))
			assert.Empty(t, svc.asked, word)
			assert.Equal(t, 1, svc.flushed, word)
		}
	})

	t.Run("end of input flushes the cache", func(t *testing.T) {
		sh, svc, _, _ := newTestShell(t, "")
		require.NoError(t, sh.run(context.Background()))
		assert.Equal(t, 1, svc.flushed)
	})

	t.Run("flush error is returned", func(t *testing.T) {
		sh, svc, _, _ := newTestShell(t, "q\n")
		svc.flushErr = errors.New("disk full")
		err := sh.run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("quick prefix", func(t *testing.T) {
		sh, svc, _, _ := newTestShell(t, "quick: inflation?\nhızlı: enflasyon?\nquick:\nq\n")
		require.NoError(t, sh.run(context.Background()))
		assert.Equal(t, []string{"inflation?", "enflasyon?"}, svc.quick)
		assert.Empty(t, svc.asked)
	})

	t.Run("list", func(t *testing.T) {
		sh, _, out, _ := newTestShell(t, "list\nq\n")
		require.NoError(t, sh.run(context.Background()))
		assert.Contains(t, out.String(), "1. ep1.txt\n2. ep2.txt\n")
		assert.NotContains(t, out.String(), ".hidden.txt")
		assert.NotContains(t, out.String(), "notes.md")
	})

	t.Run("view", func(t *testing.T) {
		sh, _, out, errOut := newTestShell(t, "view ep1\ngöster ep2.txt\nview missing\nview ../etc/passwd\nq\n")
		require.NoError(t, sh.run(context.Background()))
		assert.Contains(t, out.String(), "=== ep1.txt ===\nSpeaker A: hello\n")
		assert.Contains(t, out.String(), "=== ep2.txt ===\nSpeaker B: hi\n")
		assert.Contains(t, errOut.String(), "missing.txt not found")
		assert.Contains(t, errOut.String(), "invalid file name")
	})

	t.Run("answer errors keep the shell running", func(t *testing.T) {
		sh, svc, _, errOut := newTestShell(t, "first?\nq\n")
		svc.err = errors.New("boom")
		require.NoError(t, sh.run(context.Background()))
		assert.Contains(t, errOut.String(), "Error: boom")
		assert.Equal(t, 1, svc.flushed)
	})
}
