package ranking

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/verbatim/core"
	"github.com/poiesic/verbatim/query"
)

const (
	// MinScore is the floor of every lexical score.
	MinScore = 0.1

	maxRepeatBonus    = 5
	repeatBonus       = 0.2
	maxDensity        = 2.0
	densityMinRunes   = 50
	timeBonus         = 0.5
	speakerBonus      = 0.3
	sentenceBonus     = 0.5
	questionBonus     = 0.5
	questionMinRunes  = 100
	minSentenceWords  = 5
	maxSentenceWords  = 20
	proximityDistance = 100.0
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Scorer computes lexical relevance of passages against a keyword set.
type Scorer struct {
	normalizer *query.Normalizer
}

// NewScorer creates a scorer. Passage tokens are stemmed with the normalizer
// so inflected forms match stemmed keywords. A nil normalizer matches tokens
// literally.
func NewScorer(normalizer *query.Normalizer) *Scorer {
	return &Scorer{normalizer: normalizer}
}

// LexicalScore scores a passage by keyword matches, match density and
// proximity, plus small bonuses for timing, speaker, sentence shape, and
// question-answer structure. The result is never below MinScore.
func (s *Scorer) LexicalScore(p core.Passage, keywords map[string]struct{}) float64 {
	text := strings.ToLower(p.Text)
	tokens := query.Tokenize(text)

	stems := make([]string, len(tokens))
	for i, tok := range tokens {
		stems[i] = tok.Text
		if s.normalizer != nil {
			stems[i] = s.normalizer.Stem(tok.Text)
		}
	}

	var (
		score     float64
		matched   int
		positions []int
	)
	for kw := range keywords {
		count := 0
		for i, tok := range tokens {
			if tok.Text == kw || stems[i] == kw {
				count++
				positions = append(positions, tok.Pos)
			}
		}
		if count > 0 {
			matched++
			score += 1.0 + repeatBonus*float64(min(count-1, maxRepeatBonus))
		}
	}

	if matched == 0 {
		return MinScore
	}

	length := utf8.RuneCountInString(text)
	if length > densityMinRunes {
		density := float64(matched) / (float64(length) / 100)
		score += math.Min(density, maxDensity)
	}

	if len(positions) > 1 {
		sort.Ints(positions)
		var total int
		for i := 1; i < len(positions); i++ {
			total += positions[i] - positions[i-1]
		}
		avg := float64(total) / float64(len(positions)-1)
		score += 1.0 / (1.0 + avg/proximityDistance)
	}

	if core.HasClock(p.Time) || core.HasClock(p.TimeRange()) {
		score += timeBonus
	}

	if p.HasSpeaker() {
		score += speakerBonus
	}

	sentences := sentenceSplit.Split(text, -1)
	words := 0
	for _, sentence := range sentences {
		words += len(strings.Fields(sentence))
	}
	mean := float64(words) / float64(max(len(sentences), 1))
	if mean >= minSentenceWords && mean <= maxSentenceWords {
		score += sentenceBonus
	}

	if strings.Contains(text, "?") && length > questionMinRunes {
		score += questionBonus
	}

	return math.Max(score, MinScore)
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector is empty, has zero norm, or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
