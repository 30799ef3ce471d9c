package ai

import "errors"

// Package-level error values and types returned by the ai package.
var (
	// ErrMissingModel is returned when a GenerateCompletion request does
	// not specify a CompletionModel.
	ErrMissingModel = errors.New("ai: missing CompletionModel in request")

	// ErrEmptyCompletion is returned when a provider reports success but
	// hands back no response at all.
	ErrEmptyCompletion = errors.New("ai: provider returned no completion")
)

// InvalidArgumentError indicates that a function argument is invalid.
// It is intended for validation of ai package helper arguments, such
// as call settings.
type InvalidArgumentError struct {
	// Parameter is the name of the invalid parameter.
	Parameter string
	// Value is the offending value.
	Value any
	// Message describes why the value is considered invalid.
	Message string
}

func (e *InvalidArgumentError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "ai: invalid argument for parameter " + e.Parameter + ": " + e.Message
}
