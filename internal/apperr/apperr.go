// Package apperr defines the kinded errors surfaced by the note pipeline.
//
// Components wrap their failures in an *Error carrying one Kind and a
// human-readable reason. Callers (HTTP handlers, CLI commands) decide how to
// present each kind; the pipeline only guarantees the classification.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure
type Kind string

const (
	TranscriptionFailure Kind = "transcription_failure"
	UnknownTemplate      Kind = "unknown_template"
	GenerationFailure    Kind = "generation_failure"
	EmptyCase            Kind = "empty_case"
	StoreFailure         Kind = "store_failure"
	InvalidRequest       Kind = "invalid_request"
	NotFound             Kind = "not_found"
	Internal             Kind = "internal"
)

// Error is a classified failure
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.New(kind, "")) works
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Newf creates an error of the given kind with a formatted reason
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. An err that is already classified keeps its kind.
func Wrap(kind Kind, reason string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf returns the kind of err, or Internal for unclassified errors
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ReasonOf returns the human-readable reason for err
func ReasonOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Err != nil {
			return fmt.Sprintf("%s: %v", ae.Reason, ae.Err)
		}
		return ae.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps a kind to the status code the API responds with
func HTTPStatus(kind Kind) int {
	switch kind {
	case TranscriptionFailure:
		return http.StatusUnprocessableEntity
	case UnknownTemplate, NotFound:
		return http.StatusNotFound
	case GenerationFailure:
		return http.StatusBadGateway
	case EmptyCase:
		return http.StatusUnprocessableEntity
	case InvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
