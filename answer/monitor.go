package answer

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/verbatim/core"
)

// Monitor provides hooks to observe how a question is answered.
// Hooks run on the request goroutine, in pipeline order. Stages that are
// skipped (a cache hit, a rejected question) do not fire their hooks.
type Monitor interface {
	Start(question string)
	CacheHit(question string)
	AfterKeywords(q core.Query)
	AfterRetrieval(passages []core.Passage)
	AfterRanking(passages []core.Passage)
	AfterFilter(passages []core.Passage)
	TierAttempt(tier core.Tier, outcome Outcome, elapsed time.Duration)
	Finish(result core.AnswerResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                      {}
func (n *noopMonitor) CacheHit(_ string)                                   {}
func (n *noopMonitor) AfterKeywords(_ core.Query)                          {}
func (n *noopMonitor) AfterRetrieval(_ []core.Passage)                     {}
func (n *noopMonitor) AfterRanking(_ []core.Passage)                       {}
func (n *noopMonitor) AfterFilter(_ []core.Passage)                        {}
func (n *noopMonitor) TierAttempt(_ core.Tier, _ Outcome, _ time.Duration) {}
func (n *noopMonitor) Finish(_ core.AnswerResult)                          {}

// Stage is one timed step of a request.
type Stage struct {
	Name     string
	Duration time.Duration
}

// TimingMonitor records how long each stage of a request took.
// Use one TimingMonitor per request.
type TimingMonitor struct {
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger

	start  time.Time
	last   time.Time
	stages []Stage
	total  time.Duration
	result core.AnswerResult
}

var _ Monitor = (*TimingMonitor)(nil)

// NewTimingMonitor creates a TimingMonitor that logs the stage breakdown at
// debug level when the request finishes. A nil logger uses slog.Default().
func NewTimingMonitor(logger *slog.Logger) *TimingMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimingMonitor{
		now:    time.Now,
		logger: logger.With("component", "answer-timing"),
	}
}

func (m *TimingMonitor) mark(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.now()
	m.stages = append(m.stages, Stage{Name: name, Duration: t.Sub(m.last)})
	m.last = t
}

func (m *TimingMonitor) Start(_ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = m.now()
	m.last = m.start
	m.stages = nil
	m.total = 0
}

func (m *TimingMonitor) CacheHit(_ string)               { m.mark("cache") }
func (m *TimingMonitor) AfterKeywords(_ core.Query)      { m.mark("keywords") }
func (m *TimingMonitor) AfterRetrieval(_ []core.Passage) { m.mark("retrieval") }
func (m *TimingMonitor) AfterRanking(_ []core.Passage)   { m.mark("ranking") }
func (m *TimingMonitor) AfterFilter(_ []core.Passage)    { m.mark("filter") }

func (m *TimingMonitor) TierAttempt(tier core.Tier, _ Outcome, _ time.Duration) {
	m.mark("generation:" + tier.String())
}

func (m *TimingMonitor) Finish(result core.AnswerResult) {
	m.mark("finalize")

	m.mu.Lock()
	m.total = m.last.Sub(m.start)
	m.result = result
	attrs := make([]any, 0, len(m.stages)*2+4)
	for _, s := range m.stages {
		attrs = append(attrs, s.Name, s.Duration)
	}
	attrs = append(attrs, "total", m.total, "tier", result.Tier.String())
	m.mu.Unlock()

	m.logger.Debug("answer stages", attrs...)
}

// Stages returns a copy of the recorded stages in the order they ran.
func (m *TimingMonitor) Stages() []Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Stage(nil), m.stages...)
}

// Total returns the time between Start and Finish.
func (m *TimingMonitor) Total() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// WriteReport prints one line per stage followed by the total.
func (m *TimingMonitor) WriteReport(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := fmt.Fprintln(w, "--- timing ---"); err != nil {
		return err
	}
	for _, s := range m.stages {
		if _, err := fmt.Fprintf(w, "%-22s %8.2fs\n", s.Name, s.Duration.Seconds()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%-22s %8.2fs (%s)\n", "total", m.total.Seconds(), m.result.Tier)
	return err
}
