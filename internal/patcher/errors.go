package patcher

import (
	"errors"
	"fmt"
)

// Failure kinds. Every pipeline error matches exactly one of them with
// errors.Is.
var (
	ErrExtraction = errors.New("extraction failed")
	ErrPatchIO    = errors.New("patch io failed")
	ErrBuild      = errors.New("build failed")
	ErrSwap       = errors.New("swap failed")
)

// ErrBusy is returned when another invocation holds the scratch root.
var ErrBusy = errors.New("another patch is in progress")

// Error is a pipeline failure.
type Error struct {
	// Kind is one of ErrExtraction, ErrPatchIO, ErrBuild or ErrSwap
	Kind error
	// State is the pipeline state the failure happened in
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (%s): %v", e.Kind, e.State, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, state State, err error) *Error {
	return &Error{Kind: kind, State: state, Err: err}
}
