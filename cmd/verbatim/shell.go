package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const shellPrompt = "\nQuestion (q to quit): "

var (
	exitWords = []string{"q", "exit", "quit", "çıkış"}
	listWords = []string{"list", "liste", "dosyalar"}
	viewWords = []string{"view ", "göster "}
	quickTags = []string{"quick:", "hızlı:"}
)

type shellService interface {
	answerer
	FlushCache(ctx context.Context) error
}

// shell is the interactive question loop.
type shell struct {
	svc           shellService
	transcriptDir string
	opts          answerOptions
	now           func() time.Time

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (s *shell) run(ctx context.Context) error {
	if s.now == nil {
		s.now = time.Now
	}
	fmt.Fprintln(s.out, "Ask about the transcripts. Commands: list, view <file>, quick: <question>, q")

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, shellPrompt)
		if !scanner.Scan() {
			break
		}
		if done := s.handle(ctx, strings.TrimSpace(scanner.Text())); done {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	fmt.Fprintln(s.out, "\nGoodbye.")
	if err := s.svc.FlushCache(context.Background()); err != nil {
		return fmt.Errorf("failed to save answer cache: %w", err)
	}
	return nil
}

// handle runs one input line and reports whether the shell should exit.
func (s *shell) handle(ctx context.Context, line string) bool {
	lower := strings.ToLower(line)
	switch {
	case line == "":
		return false

	case slices.Contains(exitWords, lower):
		return true

	case slices.Contains(listWords, lower):
		s.list()

	case hasAnyPrefix(lower, viewWords):
		_, name, _ := strings.Cut(line, " ")
		s.view(strings.TrimSpace(name))

	case hasAnyPrefix(lower, quickTags):
		_, question, _ := strings.Cut(line, ":")
		question = strings.TrimSpace(question)
		if question == "" {
			fmt.Fprintln(s.out, "Please enter a valid question.")
			return false
		}
		opts := s.opts
		opts.quick = true
		s.answer(ctx, question, opts)

	default:
		s.answer(ctx, line, s.opts)
	}
	return false
}

func (s *shell) answer(ctx context.Context, question string, opts answerOptions) {
	fmt.Fprintln(s.out)
	start := s.now()
	if _, err := answerOnce(ctx, s.svc, question, opts, s.out, s.errOut); err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "\n[answered in %.2f seconds]\n", s.now().Sub(start).Seconds())
}

func (s *shell) list() {
	files, err := transcriptFiles(s.transcriptDir)
	if err != nil {
		fmt.Fprintf(s.errOut, "Cannot list %s: %v\n", s.transcriptDir, err)
		return
	}
	if len(files) == 0 {
		fmt.Fprintln(s.out, "No transcript files found.")
		return
	}
	fmt.Fprintln(s.out, "Transcript files:")
	for i, f := range files {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, f)
	}
}

func (s *shell) view(name string) {
	if name == "" {
		fmt.Fprintln(s.out, "Usage: view <file>")
		return
	}
	text, err := readTranscript(s.transcriptDir, name)
	if err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, text)
}

// transcriptFiles lists the visible .txt files in dir, sorted by name.
func transcriptFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// readTranscript returns a transcript from dir with a header line. The
// ".txt" extension is optional. Names may not leave dir.
func readTranscript(dir, name string) (string, error) {
	if !strings.HasSuffix(name, ".txt") {
		name += ".txt"
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s not found", name)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("=== %s ===\n%s\n", filepath.Base(name), data), nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
