package render

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/poiesic/verbatim/core"
)

var (
	contentTime    = regexp.MustCompile(`Time:\s*(\d+:\d+:\d+\s*-\s*\d+:\d+:\d+)`)
	contentSpeaker = regexp.MustCompile(`Speaker:\s*([A-Za-z0-9]+)`)
)

// CitationTime returns the passage's time range, falling back to a range
// embedded in the passage text and then to labels.NoTimeInfo.
func CitationTime(p core.Passage, l Labels) string {
	if t := p.TimeRange(); t != "" {
		return t
	}
	if m := contentTime.FindStringSubmatch(p.Text); m != nil {
		return m[1]
	}
	return l.NoTimeInfo
}

// CitationSpeaker returns the speaker tag, falling back to a "Speaker: X"
// line in the passage text and then to labels.Unknown.
func CitationSpeaker(p core.Passage, l Labels) string {
	if s := strings.TrimSpace(p.Speaker); s != "" {
		return s
	}
	if m := contentSpeaker.FindStringSubmatch(p.Text); m != nil {
		return m[1]
	}
	return l.Unknown
}

// FormatSources renders the citation footer: passages grouped by source file
// in order of first appearance, numbered by their position in passages.
func FormatSources(passages []core.Passage, l Labels) string {
	type entry struct {
		index   int
		time    string
		speaker string
	}
	var order []string
	groups := make(map[string][]entry)

	for i, p := range passages {
		source := strings.TrimSpace(p.SourceID)
		if source == "" {
			source = l.Unknown
		}
		if _, ok := groups[source]; !ok {
			order = append(order, source)
		}
		groups[source] = append(groups[source], entry{
			index:   i + 1,
			time:    CitationTime(p, l),
			speaker: CitationSpeaker(p, l),
		})
	}

	var b strings.Builder
	b.WriteString(l.SourcesHeader)
	b.WriteString("\n")
	for _, source := range order {
		entries := groups[source]
		fmt.Fprintf(&b, "\n📄 %s (%s):\n", source, fmt.Sprintf(l.PartsFormat, len(entries)))
		for _, e := range entries {
			fmt.Fprintf(&b, "  %d. %s: %s, %s: %s\n", e.index, l.Time, e.time, l.Speaker, e.speaker)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, l.TotalFormat, len(passages), len(order))
	return b.String()
}

// Citations returns the citation tuples for passages.
func Citations(passages []core.Passage) []core.Citation {
	out := make([]core.Citation, len(passages))
	for i, p := range passages {
		out[i] = core.CitationOf(p)
	}
	return out
}

// RawExcerpt lists up to n passages verbatim, each cut to maxRunes, framed by
// an explanation and an apology. It is the answer of last resort.
func RawExcerpt(passages []core.Passage, l Labels, n, maxRunes int) string {
	var b strings.Builder
	b.WriteString(l.ExcerptIntro)
	b.WriteString("\n\n")
	b.WriteString(l.ExcerptHeading)
	b.WriteString("\n\n")

	for i, p := range passages[:min(len(passages), max(n, 0))] {
		source := l.Unknown
		if s := strings.TrimSpace(p.SourceID); s != "" {
			source = path.Base(strings.ReplaceAll(s, `\`, "/"))
		}
		speaker := strings.TrimSpace(p.Speaker)
		if speaker == "" {
			speaker = l.Unknown
		}
		timeRange := p.TimeRange()
		if timeRange == "" {
			timeRange = l.NoTimeInfo
		}

		fmt.Fprintf(&b, "**%d. %s:**\n", i+1, l.ExcerptItem)
		fmt.Fprintf(&b, "- %s: %s\n", l.Source, source)
		fmt.Fprintf(&b, "- %s: %s\n", l.Time, timeRange)
		fmt.Fprintf(&b, "- %s: %s\n", l.Speaker, speaker)
		fmt.Fprintf(&b, "- %s: %s\n\n", l.Content, Truncate(p.Content(), maxRunes))
	}

	b.WriteString(l.ExcerptApology)
	return b.String()
}
