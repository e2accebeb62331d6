package core

import (
	"time"
)

// Table is a parsed delimited file. Header is the first record; every row in
// Rows has exactly len(Header) fields.
type Table struct {
	Header  []string
	Rows    [][]string
	Skipped []SkippedRow
}

// NumRows returns the number of data rows (header excluded).
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// SkippedRow is a record the parser dropped because it had more fields than
// the header.
type SkippedRow struct {
	Line   int // 1-based line in the decoded text where the record starts
	Fields int
}

// Phase identifies a step of a conversion for progress reporting.
type Phase string

const (
	PhaseDetecting       Phase = "detecting"
	PhaseDetected        Phase = "detected"
	PhaseCandidates      Phase = "candidates"
	PhaseTrying          Phase = "trying"
	PhaseCandidateFailed Phase = "candidate_failed"
	PhaseSucceeded       Phase = "succeeded"
	PhaseExhausted       Phase = "exhausted"
	PhaseWriting         Phase = "writing"
	PhaseWritten         Phase = "written"
)

// Progress is a snapshot of a running conversion.
type Progress struct {
	Phase      Phase
	Encoding   string   // candidate being tried, or the winner
	Candidates []string // set from PhaseCandidates onward
	Attempt    int      // 1-based index into Candidates
	Total      int      // len(Candidates)
	BytesRead  int64
	Size       int64 // source size in bytes, 0 if unknown
	Err        error // set for PhaseCandidateFailed and PhaseExhausted
}

// Percent returns byte progress of the current attempt (0-100).
func (p Progress) Percent() int {
	if p.Size <= 0 {
		return 0
	}
	pct := int(p.BytesRead * 100 / p.Size)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// ProgressFunc receives progress events synchronously on the converting
// goroutine. It must not block for long.
type ProgressFunc func(Progress)

func (f ProgressFunc) emit(p Progress) {
	if f != nil {
		f(p)
	}
}

// Attempt records one tried candidate.
type Attempt struct {
	Encoding string        `json:"encoding"`
	Kind     FailureKind   `json:"kind,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the attempt did not produce a table.
func (a Attempt) Failed() bool { return a.Err != nil }

// Outcome is a successful resolution.
type Outcome struct {
	Table    *Table
	Encoding string
	Attempts []Attempt
}

// Result is the end-to-end report of a Converter run.
type Result struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Destination string          `json:"destination,omitempty"`
	Detection   DetectionResult `json:"detection"`
	Candidates  []string        `json:"candidates"`
	Encoding    string          `json:"encoding"`
	Attempts    []Attempt       `json:"attempts"`
	Rows        int             `json:"rows"`
	Skipped     []SkippedRow    `json:"skipped,omitempty"`
	Duration    time.Duration   `json:"duration"`
}
