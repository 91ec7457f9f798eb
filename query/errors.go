package query

import "errors"

var (
	// ErrUnsupportedLanguage is returned for a language with no stemmer.
	ErrUnsupportedLanguage = errors.New("unsupported stemmer language")

	// ErrInvalidInput is returned when a word is not valid UTF-8.
	ErrInvalidInput = errors.New("input is not valid UTF-8")
)
