package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrNotFound     = errors.New("not found")
	ErrNotPermitted = errors.New("not permitted")
	ErrStaleStatus  = errors.New("bed status changed concurrently")
)

// NotFoundError is returned when a lookup by key misses.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateError is returned when an operation conflicts with the
// current state of a bed, agency or caller.
type InvalidStateError struct {
	Reason string
	Err    error
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

func (e *InvalidStateError) Unwrap() error { return e.Err }

// ResourceExhaustedError is returned when no eligible bed exists.
type ResourceExhaustedError struct {
	Reason string
}

func (e *ResourceExhaustedError) Error() string {
	return e.Reason
}

// ValidationError is returned for malformed input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// DuplicateError is returned when a unique key is already in use.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q is already in use", e.Field, e.Value)
}

// TransitionError is returned when a bed event is not valid from its current status.
type TransitionError struct {
	Event   BedEvent
	Current BedStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// NotPermitted builds the error returned when the caller's role forbids a mutation.
func NotPermitted(reason string) error {
	return &InvalidStateError{Reason: reason, Err: ErrNotPermitted}
}
