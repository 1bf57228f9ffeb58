package vocab

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound indicates a unit has no vocabulary source.
	ErrSourceNotFound = errors.New("vocabulary source not found")
	// ErrParse indicates a vocabulary source exists but is malformed.
	ErrParse = errors.New("vocabulary source malformed")
)

// ParseError describes why a vocabulary source could not be indexed.
type ParseError struct {
	Source string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse vocabulary %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ErrParse as a match so callers can use errors.Is.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func parseErr(source, reason string, err error) error {
	return &ParseError{Source: source, Reason: reason, Err: err}
}
