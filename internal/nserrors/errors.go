// Package nserrors classifies the failures surfaced by the schema build
// pipeline so callers can decide what a failure aborts: a single format,
// a single (format, version) pair, or the whole run.
package nserrors

import (
	"errors"
	"fmt"
)

// Kind identifies the high level class of an error.
type Kind string

const (
	// KindInputUnavailable indicates a required raw schema or the curated
	// baseline could not be obtained. Fatal for the affected format type only.
	KindInputUnavailable Kind = "input-unavailable"
	// KindVersionMismatch indicates a diff was paired with a curated base of
	// a different version. Programmer error, aborts the entire run.
	KindVersionMismatch Kind = "version-mismatch"
	// KindPostcondition indicates a derived document's structure disagrees
	// with the raw target. Fatal for that (format, version) pair.
	KindPostcondition Kind = "postcondition"
	// KindWrite indicates a filesystem error while writing an output file.
	KindWrite Kind = "write"
	// KindParse indicates an input document could not be decoded.
	KindParse Kind = "parse"
)

// Error wraps an underlying error with a Kind.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying error to errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New wraps err with the given kind.
func New(kind Kind, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Err: err}
}

// Newf wraps a formatted error with the given kind.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of err, or "" if err carries no Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
