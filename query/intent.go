package query

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/verbatim/core"
)

var (
	chronologicalTerms = []string{
		"kronoloji", "zaman", "sıra", "gelişme", "tarihsel", "süreç",
		"chronolog", "timeline", "sequence", "development", "historical", "process",
	}
	speakerTerms    = []string{"speaker", "konuşmacı"}
	comparisonTerms = []string{
		"karşılaştır", "fark", "benzerlik", "benzer", "farklı",
		"compar", "differ", "similar", "versus",
	}
)

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// DetectIntent classifies a question. Flags are independent.
func DetectIntent(raw string) core.Intent {
	q := strings.ToLower(raw)
	var intent core.Intent
	if containsAny(q, chronologicalTerms) {
		intent |= core.IntentChronological
	}
	if containsAny(q, speakerTerms) {
		intent |= core.IntentSpeaker
	}
	if containsAny(q, comparisonTerms) {
		intent |= core.IntentComparison
	}
	return intent
}

// DetectSpeakers returns the upper-case speaker letters mentioned as
// "speaker x", in alphabetical order. The letter must not be followed by
// another letter, so "speaker about" names nobody.
func DetectSpeakers(raw string) []string {
	q := strings.ToLower(raw)
	var speakers []string
	for c := 'a'; c <= 'z'; c++ {
		needle := "speaker " + string(c)
		for rest := q; ; {
			i := strings.Index(rest, needle)
			if i < 0 {
				break
			}
			after := rest[i+len(needle):]
			if next, _ := utf8.DecodeRuneInString(after); after == "" || !unicode.IsLetter(next) {
				speakers = append(speakers, string(unicode.ToUpper(c)))
				break
			}
			rest = after
		}
	}
	return speakers
}
