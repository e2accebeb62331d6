package core

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies why a single candidate encoding did not work.
// Every kind is recoverable: the resolver moves on to the next candidate.
type FailureKind string

const (
	KindUnknownEncoding FailureKind = "unknown_encoding"
	KindDecode          FailureKind = "decode"
	KindParse           FailureKind = "parse"
	KindOther           FailureKind = "other"
)

var (
	// ErrDestinationExists is returned by Converter.Convert when the output
	// file already exists and overwriting was not requested.
	ErrDestinationExists = errors.New("destination already exists")

	// ErrNoColumns is the parse error for input with no header record.
	ErrNoColumns = errors.New("no columns to parse from file")
)

// DetectionError halts a conversion before any candidate is tried.
type DetectionError struct {
	Path   string
	Reason FailureReason
	Err    error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detection failed for %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// CandidateError is one candidate's failure.
type CandidateError struct {
	Encoding string
	Kind     FailureKind
	Err      error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("candidate %s: %s error: %v", e.Encoding, e.Kind, e.Err)
}

func (e *CandidateError) Unwrap() error { return e.Err }

// ExhaustionError reports that every candidate failed.
type ExhaustionError struct {
	Attempted []string
	Attempts  []Attempt
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("no candidate encoding could read the file (tried %s)", strings.Join(e.Attempted, ", "))
}

// SourceError is an I/O failure on the source file itself. It aborts the
// attempt loop because every remaining candidate would fail the same way.
type SourceError struct {
	Path     string
	Attempts []Attempt
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source read failed for %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// WriteError wraps any failure while writing the destination file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write output failed for %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Attempted returns the candidates tried before err stopped the resolver,
// or nil if err carries no attempt list.
func Attempted(err error) []string {
	var ee *ExhaustionError
	if errors.As(err, &ee) {
		return ee.Attempted
	}
	var se *SourceError
	if errors.As(err, &se) {
		names := make([]string, len(se.Attempts))
		for i, a := range se.Attempts {
			names[i] = a.Encoding
		}
		return names
	}
	return nil
}
