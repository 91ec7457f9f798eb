package batch

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress reports how many questions of a batch have been answered.
type Progress struct {
	writer   io.Writer
	total    int
	done     int
	interval int
	reported int
	started  time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewProgress creates a tracker that writes to w every interval answers.
// An interval below 1 reports every answer.
func NewProgress(w io.Writer, total, interval int) *Progress {
	return &Progress{
		writer:   w,
		total:    total,
		interval: max(interval, 1),
		now:      time.Now,
	}
}

// Start resets the counters and the clock.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = p.now()
	p.done = 0
	p.reported = 0
}

// Done records one finished question.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = min(p.done+1, p.total)
	if p.done-p.reported >= p.interval {
		p.report()
		p.reported = p.done
	}
}

// Finish prints the final line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report()
	fmt.Fprintln(p.writer)
}

// Count returns the number of finished questions.
func (p *Progress) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// report must be called with the lock held.
func (p *Progress) report() {
	elapsed := p.now().Sub(p.started)
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}
	fmt.Fprintf(p.writer, "\rAnswered: %d/%d (%.1f%%) in %s", p.done, p.total, percentage, elapsed.Round(time.Millisecond))
}
