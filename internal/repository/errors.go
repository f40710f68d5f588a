package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNoEntries            = errors.New("no entries")
	ErrInvalidDecryptionKey = errors.New("invalid decryption key")
	ErrNoHeaderForEntry     = errors.New("entry before any session header")
	ErrInvalidHeader        = errors.New("invalid session header")
	ErrInvalidEntry         = errors.New("invalid entry")
	ErrInvalidMetadata      = errors.New("invalid entry metadata")
)

// ParseError reports why a log file could not be parsed. Line is 1-based
// and zero when the failure is not tied to a line.
type ParseError struct {
	Line   int
	Err    error
	Detail string
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseError(line int, err error, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Err: err, Detail: fmt.Sprintf(format, args...)}
}
