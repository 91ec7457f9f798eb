package core

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// contentMarker prefixes the transcript body in indexed passages.
const contentMarker = "Content: "

// zeroRange is the placeholder the indexer writes when a chunk has no timing.
const zeroRange = "00:00:00 - 00:00:00"

var clockPattern = regexp.MustCompile(`(\d+):(\d+):(\d+)`)

// Passage is a unit of retrieved transcript text with its citation metadata.
type Passage struct {
	Text     string
	SourceID string
	Speaker  string

	// Time is the raw time-range metadata written by the indexer, e.g. "0:01:00-0:01:30".
	Time string

	// Start and End are explicit offsets into the recording. Nil when unknown.
	Start *time.Duration
	End   *time.Duration

	// Score is assigned by the ranker.
	Score float64

	// Vector is the passage embedding when the retriever returns one.
	Vector []float32
}

// Content returns the passage body without the indexer's "Content: " prefix.
func (p Passage) Content() string {
	content := p.Text
	if i := strings.LastIndex(content, contentMarker); i >= 0 {
		content = content[i+len(contentMarker):]
	}
	return strings.TrimSpace(content)
}

// TimeRange returns a display form of the passage's position in the recording.
// Explicit metadata wins unless it is the zero placeholder; otherwise the range
// is rebuilt from Start and End. Returns "" when neither is available.
func (p Passage) TimeRange() string {
	t := strings.TrimSpace(p.Time)
	if t != "" && t != zeroRange {
		return t
	}
	if p.Start != nil && p.End != nil {
		return FormatClock(*p.Start) + " - " + FormatClock(*p.End)
	}
	return ""
}

// StartOffset extracts the first H:MM:SS value from the time metadata, the
// explicit start offset, or the content, in that order.
func (p Passage) StartOffset() (time.Duration, bool) {
	if t := strings.TrimSpace(p.Time); t != "" && t != zeroRange {
		if d, ok := ParseClock(t); ok {
			return d, true
		}
	}
	if p.Start != nil {
		return *p.Start, true
	}
	return ParseClock(p.Text)
}

// HasSpeaker reports whether the passage carries a non-blank speaker tag.
func (p Passage) HasSpeaker() bool {
	return strings.TrimSpace(p.Speaker) != ""
}

// ParseClock finds the first H:MM:SS shaped substring in s and converts it to a duration.
func ParseClock(s string) (time.Duration, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	secs, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second, true
}

// HasClock reports whether s contains an H:MM:SS shaped substring.
func HasClock(s string) bool {
	return clockPattern.MatchString(s)
}

// FormatClock renders a duration as H:MM:SS.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// Intent is a set of query classification flags.
type Intent uint8

const (
	// IntentChronological asks for events in time order.
	IntentChronological Intent = 1 << iota
	// IntentSpeaker focuses on what particular speakers said.
	IntentSpeaker
	// IntentComparison contrasts ideas or speakers.
	IntentComparison
)

// Has reports whether all flags in f are set.
func (i Intent) Has(f Intent) bool {
	return i&f == f && f != 0
}

func (i Intent) String() string {
	var parts []string
	if i.Has(IntentChronological) {
		parts = append(parts, "chronological")
	}
	if i.Has(IntentSpeaker) {
		parts = append(parts, "speaker")
	}
	if i.Has(IntentComparison) {
		parts = append(parts, "comparison")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Query is a parsed question. It is not modified after construction.
type Query struct {
	Raw      string
	Keywords map[string]struct{}
	Intent   Intent
	Speakers []string
}

// KeywordList returns the keywords in sorted order.
func (q Query) KeywordList() []string {
	out := make([]string, 0, len(q.Keywords))
	for k := range q.Keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NormalizeKey returns the cache key for a question: trimmed and lower-cased.
func NormalizeKey(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// CacheEntry is a cached answer. The working set and durable set share this shape.
type CacheEntry struct {
	Key          string
	Response     string
	CreatedAt    time.Time
	LastAccessed time.Time
	HitCount     int64
}

// Citation identifies one passage used to build an answer.
type Citation struct {
	SourceID  string
	TimeRange string
	Speaker   string
}

// CitationOf builds the citation tuple for a passage.
func CitationOf(p Passage) Citation {
	return Citation{
		SourceID:  p.SourceID,
		TimeRange: p.TimeRange(),
		Speaker:   p.Speaker,
	}
}

// Tier identifies the stage of the generation chain that produced an answer.
type Tier int

const (
	TierNone Tier = iota
	TierCache
	TierPrimary
	TierSecondary
	TierEmergency
	TierRawExcerpt
)

func (t Tier) String() string {
	switch t {
	case TierCache:
		return "cache"
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierEmergency:
		return "emergency"
	case TierRawExcerpt:
		return "raw-excerpt"
	default:
		return "none"
	}
}

// AnswerResult is the outcome of answering one question.
type AnswerResult struct {
	Body      string
	Citations []Citation
	Tier      Tier
	// Degraded is set when a fallback tier produced the body.
	Degraded bool
	Cached   bool
}
