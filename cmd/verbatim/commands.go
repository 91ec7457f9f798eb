package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/answer"
	"github.com/poiesic/verbatim/batch"
	"github.com/poiesic/verbatim/core"
	"github.com/poiesic/verbatim/render"
	"github.com/poiesic/verbatim/server"
	"github.com/urfave/cli/v2"
)

const shutdownGrace = 10 * time.Second

// answerer is the part of the service the answer commands and the shell use.
type answerer interface {
	AnswerWithMonitor(ctx context.Context, question string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error)
	QuickAnswerWithMonitor(ctx context.Context, question string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error)
}

type answerOptions struct {
	quick       bool
	stream      bool
	trace       bool
	save        bool
	analysisDir string
	labels      render.Labels
}

// answerOnce answers one question, writing the answer to out and the timing
// report and archive notices to errOut.
func answerOnce(ctx context.Context, a answerer, question string, opts answerOptions, out, errOut io.Writer) (core.AnswerResult, error) {
	var monitor answer.Monitor
	var timing *answer.TimingMonitor
	if opts.trace {
		timing = answer.NewTimingMonitor(nil)
		monitor = timing
	}

	var stream ai.StreamFunc
	if opts.stream {
		stream = func(chunk string) error {
			_, err := io.WriteString(out, chunk)
			return err
		}
	}

	fn := a.AnswerWithMonitor
	if opts.quick {
		fn = a.QuickAnswerWithMonitor
	}
	res, err := fn(ctx, question, stream, monitor)
	if err != nil {
		return res, err
	}

	if opts.stream {
		fmt.Fprintln(out)
	} else {
		fmt.Fprintln(out, res.Body)
	}

	if timing != nil {
		if err := timing.WriteReport(errOut); err != nil {
			return res, err
		}
	}

	if opts.save {
		path, err := render.WriteAnalysis(opts.analysisDir, question, res.Body, time.Now(), opts.labels)
		if err != nil {
			return res, fmt.Errorf("failed to save analysis: %w", err)
		}
		fmt.Fprintf(errOut, "Analysis saved to %s\n", path)
	}
	return res, nil
}

func askCommand(c *cli.Context) error {
	return runAnswer(c, false)
}

func quickCommand(c *cli.Context) error {
	return runAnswer(c, true)
}

func runAnswer(c *cli.Context, quick bool) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	_, err = answerOnce(ctx, svc, question, answerOptions{
		quick:       quick,
		stream:      !c.Bool("no-stream"),
		trace:       c.Bool("trace"),
		save:        c.Bool("save"),
		analysisDir: svc.Config().AnalysisDir,
		labels:      svc.Labels(),
	}, c.App.Writer, c.App.ErrWriter)
	return err
}

func batchCommand(c *cli.Context) error {
	questions := c.Args().Slice()
	if path := c.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open questions file: %w", err)
		}
		fromFile, err := readQuestions(f)
		f.Close()
		if err != nil {
			return err
		}
		questions = append(questions, fromFile...)
	}
	if len(questions) == 0 {
		return errors.New("no questions given: pass them as arguments or with --file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	var opts []batch.Option
	if n := c.Int("workers"); n > 0 {
		opts = append(opts, batch.WithWorkers(n))
	}
	if d := c.Duration("timeout"); d > 0 {
		opts = append(opts, batch.WithTimeout(d))
	}
	if n := c.Int("report-interval"); n > 0 {
		opts = append(opts, batch.WithProgress(c.App.ErrWriter, n))
	}

	answers := svc.AnswerAll(ctx, questions, opts...)
	writeBatch(c.App.Writer, questions, answers)
	return nil
}

// readQuestions returns the non-blank lines of r.
func readQuestions(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	return out, nil
}

func writeBatch(w io.Writer, questions, answers []string) {
	for i, q := range questions {
		fmt.Fprintf(w, "=== %d. %s ===\n%s\n\n", i+1, q, answers[i])
	}
}

func shellCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	cfg := svc.Config()
	sh := &shell{
		svc:           svc,
		transcriptDir: cfg.TranscriptDir,
		opts: answerOptions{
			stream:      true,
			trace:       c.Bool("trace"),
			save:        c.Bool("save"),
			analysisDir: cfg.AnalysisDir,
			labels:      svc.Labels(),
		},
		in:     os.Stdin,
		out:    c.App.Writer,
		errOut: c.App.ErrWriter,
	}
	return sh.run(ctx)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	addr := svc.Config().Server.Listen
	if listen := c.String("listen"); listen != "" {
		addr = listen
	}

	router := server.NewRouter(&server.Deps{Service: svc})
	return server.Serve(ctx, addr, router, shutdownGrace, nil)
}

func cacheStatsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	s := svc.CacheStats()
	fmt.Fprintf(c.App.Writer, "Working entries: %d\n", s.Working)
	fmt.Fprintf(c.App.Writer, "Durable entries: %d\n", s.Durable)
	return nil
}

func cacheFlushCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.FlushCache(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Flushed %d cached answers\n", svc.CacheStats().Durable)
	return nil
}

func cacheClearCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.ClearCache(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Answer cache cleared")
	return nil
}
