package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/turkish"
)

// Stemmer reduces a word to its stem. Implementations may fail on individual
// words; callers fall back to the unstemmed token.
type Stemmer interface {
	Stem(word string) (string, error)
}

// Language selects a Snowball algorithm.
type Language string

const (
	Turkish Language = "tr"
	English Language = "en"
)

// SnowballStemmer runs a Snowball stemming algorithm.
type SnowballStemmer struct {
	stem func(env *snowballstem.Env) bool
}

// NewSnowballStemmer returns a stemmer for the given language.
func NewSnowballStemmer(lang Language) (*SnowballStemmer, error) {
	switch lang {
	case Turkish:
		return &SnowballStemmer{stem: turkish.Stem}, nil
	case English:
		return &SnowballStemmer{stem: english.Stem}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
}

// Stem implements Stemmer.
func (s *SnowballStemmer) Stem(word string) (string, error) {
	if !utf8.ValidString(word) {
		return "", ErrInvalidInput
	}
	env := snowballstem.NewEnv(word)
	s.stem(env)
	return env.Current(), nil
}

// suffixes is the fixed table used by SuffixStemmer.
var suffixes = []string{
	"lar", "ler", "leri", "ları", "dan", "den", "tan", "ten",
	"a", "e", "i", "ı", "in", "ın", "un", "ün", "da", "de", "ta", "te",
}

// SuffixStemmer strips the longest suffix from a fixed Turkish table when
// what remains is longer than two runes. It never fails.
type SuffixStemmer struct{}

// Stem implements Stemmer.
func (SuffixStemmer) Stem(word string) (string, error) {
	best := ""
	for _, suf := range suffixes {
		if utf8.RuneCountInString(suf) <= utf8.RuneCountInString(best) || !strings.HasSuffix(word, suf) {
			continue
		}
		if utf8.RuneCountInString(word[:len(word)-len(suf)]) > 2 {
			best = suf
		}
	}
	return word[:len(word)-len(best)], nil
}

var (
	_ Stemmer = (*SnowballStemmer)(nil)
	_ Stemmer = SuffixStemmer{}
)
