// Package rename holds the request-scoped types shared by the renaming pipeline
// and the typed failures every stage reports.
package rename

import (
	"errors"
	"fmt"
)

// Kind classifies a renaming failure.
type Kind string

const (
	KindPositionNotFound Kind = "position_not_found"
	KindNotAnIdentifier  Kind = "not_an_identifier"
	KindLineOutOfRange   Kind = "line_out_of_range"
	KindParse            Kind = "parse_error"
	KindNoOccurrences    Kind = "no_occurrences"
	KindScoring          Kind = "scoring_error"
)

// Error is returned by every stage of the pipeline. Op names the stage that
// detected the failure.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// Errorf builds an Error with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and op to an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: err.Error(), Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, e.Msg)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind carried by err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a kind to the status code reported to clients.
func Status(kind Kind) int {
	switch kind {
	case KindPositionNotFound, KindNotAnIdentifier, KindLineOutOfRange, KindParse:
		return 400
	case KindNoOccurrences:
		return 404
	default:
		return 500
	}
}
