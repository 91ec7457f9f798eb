package answer

import (
	"errors"
	"fmt"

	"github.com/poiesic/verbatim/core"
)

var (
	// ErrRetrieverRequired is returned when an Engine is built without a retriever.
	ErrRetrieverRequired = errors.New("retriever is required")

	// ErrProviderRequired is returned when an Engine is built without an AI provider.
	ErrProviderRequired = errors.New("ai provider is required")

	// ErrCompleterRequired is returned when the provider has no primary completer.
	ErrCompleterRequired = errors.New("completer is required")

	// ErrNilContext is returned when a request is made with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid option")

	// ErrDegenerateResponse marks a completion that was empty or too short to use.
	ErrDegenerateResponse = errors.New("degenerate response")
)

// ErrorKind classifies why a generation tier failed.
type ErrorKind int

const (
	// KindTimeout means the tier did not answer within its timeout.
	KindTimeout ErrorKind = iota + 1
	// KindFailure means the completer returned an error or panicked.
	KindFailure
	// KindDegenerate means the completer answered with too little text.
	KindDegenerate
	// KindRejected means the worker pool refused the attempt.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindFailure:
		return "failure"
	case KindDegenerate:
		return "degenerate"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// GenerationError describes a failed tier attempt.
type GenerationError struct {
	Tier core.Tier
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s tier: %s", e.Tier, e.Kind)
	}
	return fmt.Sprintf("%s tier: %s: %v", e.Tier, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
