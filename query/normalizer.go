package query

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/verbatim/core"
)

// minKeywordRunes is the shortest token kept as a keyword.
const minKeywordRunes = 3

// Turkish stop words from the transcript corpus.
var turkishStopWords = []string{
	"ve", "veya", "ile", "bu", "şu", "o", "bir", "için", "gibi", "kadar",
	"de", "da", "ne", "ki", "ama", "fakat", "lakin", "ancak", "hem", "ya",
	"ise", "mi", "mu", "mı", "mü", "nasıl", "neden", "niçin", "hangi", "kim",
	"kime", "kimi", "nerede", "her", "tüm", "bütün", "hep", "hiç", "çok",
	"daha", "en", "pek", "sadece", "yalnız", "dolayı", "üzere",
}

var englishStopWords = []string{
	"the", "a", "an", "and", "or", "but", "is", "are", "was", "were", "be",
	"been", "to", "of", "in", "on", "at", "for", "with", "by", "from", "that",
	"this", "it", "as", "what", "did", "does", "do", "about", "how", "why",
	"who", "which", "when", "where", "not", "have", "has", "had", "you",
}

// used when input is not valid UTF-8
var degradedStopWords = map[string]struct{}{
	"ve": {}, "ile": {}, "bu": {}, "şu": {}, "o": {},
}

// Token is a lower-cased word and its rune offset in the source text.
type Token struct {
	Text string
	Pos  int
}

// Tokenize lower-cases text and splits it into runs of letters, digits and underscores.
func Tokenize(text string) []Token {
	var (
		tokens []Token
		b      strings.Builder
		start  = -1
		pos    int
	)
	flush := func() {
		if start >= 0 {
			tokens = append(tokens, Token{Text: b.String(), Pos: start})
			b.Reset()
			start = -1
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r) {
			if start < 0 {
				start = pos
			}
			b.WriteRune(r)
		} else {
			flush()
		}
		pos++
	}
	flush()
	return tokens
}

// Normalizer extracts stemmed keywords from questions.
type Normalizer struct {
	stemmer   Stemmer
	stopWords map[string]struct{}
	logger    *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithStemmer sets the stemmer. A nil stemmer disables stemming.
func WithStemmer(s Stemmer) Option {
	return func(n *Normalizer) error {
		n.stemmer = s
		return nil
	}
}

// WithStopWords adds extra stop words.
func WithStopWords(words ...string) Option {
	return func(n *Normalizer) error {
		for _, w := range words {
			n.stopWords[strings.ToLower(w)] = struct{}{}
		}
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
		return nil
	}
}

// NewNormalizer creates a normalizer. The default stemmer is the Turkish
// Snowball algorithm.
func NewNormalizer(opts ...Option) (*Normalizer, error) {
	stemmer, err := NewSnowballStemmer(Turkish)
	if err != nil {
		return nil, err
	}
	n := &Normalizer{
		stemmer:   stemmer,
		stopWords: make(map[string]struct{}, len(turkishStopWords)+len(englishStopWords)),
		logger:    slog.Default().With("component", "normalizer"),
	}
	for _, w := range turkishStopWords {
		n.stopWords[w] = struct{}{}
	}
	for _, w := range englishStopWords {
		n.stopWords[w] = struct{}{}
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return n, nil
}

// IsStopWord reports whether word is filtered out of keyword sets.
func (n *Normalizer) IsStopWord(word string) bool {
	_, ok := n.stopWords[word]
	return ok
}

// Stem returns the stem of a single lower-cased token, or the token itself
// when the stemmer fails, panics, or returns an empty stem.
func (n *Normalizer) Stem(token string) (stem string) {
	if n.stemmer == nil {
		return token
	}
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("stemmer panicked", "token", token, "panic", r)
			stem = token
		}
	}()
	s, err := n.stemmer.Stem(token)
	if err != nil || s == "" {
		if err != nil {
			n.logger.Debug("stemming failed", "token", token, "err", err)
		}
		return token
	}
	return s
}

// ExtractKeywords returns the stemmed, stop-word-free keyword set of text.
// It returns an empty set only when every token is a stop word or too short.
func (n *Normalizer) ExtractKeywords(text string) map[string]struct{} {
	if !utf8.ValidString(text) {
		return degradedKeywords(text)
	}

	var surviving []string
	for _, tok := range Tokenize(text) {
		if utf8.RuneCountInString(tok.Text) < minKeywordRunes || n.IsStopWord(tok.Text) {
			continue
		}
		surviving = append(surviving, tok.Text)
	}

	keywords := make(map[string]struct{}, len(surviving))
	for _, tok := range surviving {
		if s := n.Stem(tok); s != "" {
			keywords[s] = struct{}{}
		}
	}
	if len(keywords) == 0 {
		for _, tok := range surviving {
			keywords[tok] = struct{}{}
		}
	}
	return keywords
}

// degradedKeywords is a whitespace-split fallback for input that cannot be tokenized.
func degradedKeywords(text string) map[string]struct{} {
	keywords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if _, stop := degradedStopWords[w]; stop || len(w) <= 2 {
			continue
		}
		keywords[w] = struct{}{}
	}
	return keywords
}

// Parse builds an immutable query from the raw question.
func (n *Normalizer) Parse(raw string) core.Query {
	return core.Query{
		Raw:      raw,
		Keywords: n.ExtractKeywords(raw),
		Intent:   DetectIntent(raw),
		Speakers: DetectSpeakers(raw),
	}
}
