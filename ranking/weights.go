package ranking

import (
	"errors"
	"strings"

	"github.com/poiesic/verbatim/core"
)

// Weights blend the lexical and semantic signals.
type Weights struct {
	Lexical      float64 `yaml:"lexical"`
	Semantic     float64 `yaml:"semantic"`
	SpeakerBoost float64 `yaml:"speaker_boost"`
}

// DefaultWeights returns the stock blend: mostly lexical, with a 1.5x boost
// for passages by a speaker the question names.
func DefaultWeights() Weights {
	return Weights{
		Lexical:      0.75,
		Semantic:     0.25,
		SpeakerBoost: 1.5,
	}
}

// Validate rejects negative weights.
func (w Weights) Validate() error {
	if w.Lexical < 0 || w.Semantic < 0 || w.SpeakerBoost < 0 {
		return errors.New("ranking: weights must not be negative")
	}
	return nil
}

// Hybrid blends a lexical score (normalized by half, clamped to [0,1]) with a
// cosine similarity (negative values count as zero).
func (w Weights) Hybrid(lexical, cosine float64) float64 {
	return w.Lexical*clamp(lexical/2, 0, 1) + w.Semantic*max(cosine, 0)
}

// SpeakerMatch reports whether a question that mentions speakers names the
// passage's speaker.
func SpeakerMatch(rawQuery string, p core.Passage) bool {
	q := strings.ToLower(rawQuery)
	speaker := strings.ToLower(strings.TrimSpace(p.Speaker))
	return speaker != "" && strings.Contains(q, "speaker") && strings.Contains(q, speaker)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
