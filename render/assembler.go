package render

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/verbatim/core"
)

const (
	// DefaultMaxFilename caps the rendered source name, marker included.
	DefaultMaxFilename = 40
	// DefaultMaxContent caps the rendered passage body, marker included.
	DefaultMaxContent = 1000

	ellipsis = "..."
)

var errInvalidContent = errors.New("passage content is not valid UTF-8")

// Truncate shortens s to at most n runes, ending with "..." when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= len(ellipsis) {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-len(ellipsis)]) + ellipsis
}

// Assembler renders ranked passages as a bounded context block.
type Assembler struct {
	labels      Labels
	maxFilename int
	maxContent  int
	logger      *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLabels sets the label set.
func WithLabels(l Labels) Option {
	return func(a *Assembler) {
		a.labels = l
	}
}

// WithLimits overrides the filename and content limits. Non-positive values keep the defaults.
func WithLimits(maxFilename, maxContent int) Option {
	return func(a *Assembler) {
		if maxFilename > 0 {
			a.maxFilename = maxFilename
		}
		if maxContent > 0 {
			a.maxContent = maxContent
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// NewAssembler creates an assembler with English labels and default limits.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		labels:      EnglishLabels,
		maxFilename: DefaultMaxFilename,
		maxContent:  DefaultMaxContent,
		logger:      slog.Default().With("component", "assembler"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Labels returns the label set in use.
func (a *Assembler) Labels() Labels {
	return a.labels
}

// Assemble renders each passage as a labelled block; blocks are separated by
// a blank line. A passage whose content cannot be rendered gets a placeholder.
func (a *Assembler) Assemble(passages []core.Passage) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = a.block(i+1, p)
	}
	return strings.Join(blocks, "\n\n")
}

func (a *Assembler) block(i int, p core.Passage) string {
	l := a.labels

	source := p.SourceID
	if strings.TrimSpace(source) == "" {
		source = l.Unknown
	}
	timeRange := p.TimeRange()
	if timeRange == "" {
		timeRange = l.Unknown
	}
	speaker := strings.TrimSpace(p.Speaker)
	if speaker == "" {
		speaker = l.Unknown
	}

	content, err := a.content(p)
	if err != nil {
		a.logger.Warn("failed to render passage content", "document", i, "source", p.SourceID, "err", err)
		content = l.ContentUnavailable
	}

	return fmt.Sprintf("[%s %d]\n%s: %s\n%s: %s\n%s: %s\n%s: %s",
		l.Document, i,
		l.File, Truncate(source, a.maxFilename),
		l.Time, timeRange,
		l.Speaker, speaker,
		l.Content, content,
	)
}

func (a *Assembler) content(p core.Passage) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic rendering content: %v", r)
		}
	}()
	if !utf8.ValidString(p.Text) {
		return "", errInvalidContent
	}
	return Truncate(p.Content(), a.maxContent), nil
}
