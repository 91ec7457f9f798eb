package batch

import "errors"

var (
	// ErrAnswererRequired is returned when a Runner is built without an answerer.
	ErrAnswererRequired = errors.New("answerer is required")

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid option")
)
