// Package selection trims ranked passages to a budget and applies the
// query-intent policies: chronological order, speaker focus, and balanced
// comparison across speakers.
package selection

import (
	"slices"
	"sort"
	"strings"

	"github.com/poiesic/verbatim/core"
)

// UnknownSpeaker groups passages with no speaker tag.
const UnknownSpeaker = "unknown"

// Budget bounds how many passages reach the context.
type Budget struct {
	// MaxDocuments caps the output length.
	MaxDocuments int `yaml:"max_documents"`
	// PerSpeaker caps each speaker group under comparison intent.
	PerSpeaker int `yaml:"per_speaker"`
	// OtherSpeakers is the minimum number of non-matching passages kept under speaker intent.
	OtherSpeakers int `yaml:"other_speakers"`
}

// DefaultBudget returns the standard budget.
func DefaultBudget() Budget {
	return Budget{MaxDocuments: 70, PerSpeaker: 15, OtherSpeakers: 35}
}

// QuickBudget returns the reduced budget used by quick answers.
func QuickBudget() Budget {
	return Budget{MaxDocuments: 10, PerSpeaker: 5, OtherSpeakers: 5}
}

// Filter selects passages for the context. The steps run in order: truncate
// to MaxDocuments, sort chronologically, put the named speakers first, and
// balance speaker groups for comparisons. The input slice is never modified.
func Filter(passages []core.Passage, q core.Query, budget Budget) []core.Passage {
	limit := max(budget.MaxDocuments, 0)
	out := slices.Clone(passages[:min(len(passages), limit)])

	if q.Intent.Has(core.IntentChronological) {
		out = Chronological(out)
	}
	if q.Intent.Has(core.IntentSpeaker) && len(q.Speakers) > 0 {
		out = SpeakerFocus(out, q.Speakers, budget)
	}
	if q.Intent.Has(core.IntentComparison) {
		out = Balance(out, budget)
	}
	return out
}

// Chronological stable-sorts passages by start offset. Passages without a
// parseable time come last in their original order.
func Chronological(passages []core.Passage) []core.Passage {
	type keyed struct {
		p     core.Passage
		start int64
		ok    bool
	}
	ks := make([]keyed, len(passages))
	for i, p := range passages {
		d, ok := p.StartOffset()
		ks[i] = keyed{p: p, start: int64(d), ok: ok}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.start < b.start
	})

	out := make([]core.Passage, len(ks))
	for i, k := range ks {
		out[i] = k.p
	}
	return out
}

// SpeakerFocus puts passages by the named speakers first and keeps up to
// max(OtherSpeakers, MaxDocuments-matching) of the rest. Relative order is kept.
func SpeakerFocus(passages []core.Passage, speakers []string, budget Budget) []core.Passage {
	wanted := make(map[string]struct{}, len(speakers))
	for _, s := range speakers {
		wanted[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}

	var matching, others []core.Passage
	for _, p := range passages {
		if _, ok := wanted[strings.ToUpper(strings.TrimSpace(p.Speaker))]; ok && p.HasSpeaker() {
			matching = append(matching, p)
		} else {
			others = append(others, p)
		}
	}

	keep := max(budget.OtherSpeakers, budget.MaxDocuments-len(matching))
	others = others[:min(len(others), max(keep, 0))]
	return append(matching, others...)
}

// Balance groups passages by speaker, orders groups by size (ties by first
// appearance), takes at most PerSpeaker from each and truncates to MaxDocuments.
func Balance(passages []core.Passage, budget Budget) []core.Passage {
	var order []string
	groups := make(map[string][]core.Passage)
	for _, p := range passages {
		key := strings.TrimSpace(p.Speaker)
		if key == "" {
			key = UnknownSpeaker
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return len(groups[order[i]]) > len(groups[order[j]])
	})

	perSpeaker := max(budget.PerSpeaker, 0)
	var out []core.Passage
	for _, key := range order {
		g := groups[key]
		out = append(out, g[:min(len(g), perSpeaker)]...)
	}
	return out[:min(len(out), max(budget.MaxDocuments, 0))]
}
