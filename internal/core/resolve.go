package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JonMunkholm/csvutf8/internal/charset"
	"github.com/JonMunkholm/csvutf8/internal/logging"
)

// Resolver tries candidate encodings against a file until one parses.
// The zero value is ready to use.
type Resolver struct {
	// OnProgress, if set, receives candidate, attempt and byte progress.
	OnProgress ProgressFunc
}

// Resolve builds the candidate list for d and runs the attempt loop.
func Resolve(ctx context.Context, path string, d Detection) (*Outcome, error) {
	var r Resolver
	return r.Resolve(ctx, path, d)
}

// Resolve builds the candidate list for d and runs the attempt loop. A
// DetectionFailure returns a *DetectionError without touching the file.
func (r *Resolver) Resolve(ctx context.Context, path string, d Detection) (*Outcome, error) {
	candidates, err := BuildCandidates(d)
	if err != nil {
		var de *DetectionError
		if errors.As(err, &de) {
			de.Path = path
		}
		logging.FromContext(ctx).Error("detection failed, no candidates tried", "path", path, "error", err)
		return nil, err
	}
	return r.Try(ctx, path, candidates)
}

// Try attempts each candidate in order and returns the first table that
// decodes and parses. Candidate failures are logged and skipped. An I/O
// failure on the file itself stops the loop with a *SourceError; running out
// of candidates returns an *ExhaustionError.
func (r *Resolver) Try(ctx context.Context, path string, candidates []string) (*Outcome, error) {
	logger := logging.FromContext(ctx)
	total := len(candidates)

	r.OnProgress.emit(Progress{Phase: PhaseCandidates, Candidates: candidates, Total: total})
	logger.Info("trying candidate encodings", "path", path, "candidates", candidates)

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	attempts := make([]Attempt, 0, total)
	for i, enc := range candidates {
		base := Progress{
			Encoding:   enc,
			Candidates: candidates,
			Attempt:    i + 1,
			Total:      total,
			Size:       size,
		}

		trying := base
		trying.Phase = PhaseTrying
		r.OnProgress.emit(trying)

		onRead := func(read, sz int64) {
			p := base
			p.Phase = PhaseTrying
			p.BytesRead = read
			if sz > 0 {
				p.Size = sz
			}
			r.OnProgress.emit(p)
		}

		start := time.Now()
		table, err := tryCandidate(path, enc, size, onRead)
		a := Attempt{Encoding: enc, Duration: time.Since(start)}

		if err == nil {
			attempts = append(attempts, a)
			done := base
			done.Phase = PhaseSucceeded
			r.OnProgress.emit(done)
			logger.Info("candidate succeeded",
				"encoding", enc,
				"attempt", i+1,
				"rows", table.NumRows(),
				"skipped_rows", len(table.Skipped),
			)
			for _, s := range table.Skipped {
				logger.Warn("skipped row with too many fields", "line", s.Line, "fields", s.Fields, "expected", len(table.Header))
			}
			return &Outcome{Table: table, Encoding: enc, Attempts: attempts}, nil
		}

		a.Err = err
		var se *SourceError
		if errors.As(err, &se) {
			attempts = append(attempts, a)
			se.Attempts = attempts
			failed := base
			failed.Phase = PhaseCandidateFailed
			failed.Err = err
			r.OnProgress.emit(failed)
			logger.Error("source read failed, giving up", "encoding", enc, "error", se.Err)
			return nil, se
		}

		var ce *CandidateError
		if errors.As(err, &ce) {
			a.Kind = ce.Kind
		} else {
			a.Kind = KindOther
		}
		attempts = append(attempts, a)

		failed := base
		failed.Phase = PhaseCandidateFailed
		failed.Err = err
		r.OnProgress.emit(failed)
		logger.Warn("candidate failed", "encoding", enc, "kind", a.Kind, "error", err)
	}

	attempted := make([]string, len(candidates))
	copy(attempted, candidates)
	ex := &ExhaustionError{Attempted: attempted, Attempts: attempts}

	r.OnProgress.emit(Progress{Phase: PhaseExhausted, Candidates: candidates, Total: total, Err: ex})
	logger.Error("all candidate encodings failed", "path", path, "attempted", attempted)
	return nil, ex
}

// tryCandidate reads the whole file, decodes it strictly as enc and parses
// it. It returns a *SourceError for I/O failures on path and a
// *CandidateError for everything else.
func tryCandidate(path, enc string, size int64, onRead func(read, total int64)) (table *Table, err error) {
	defer func() {
		if p := recover(); p != nil {
			table = nil
			err = &CandidateError{Encoding: enc, Kind: KindOther, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	codec, err := charset.Lookup(enc)
	if err != nil {
		return nil, &CandidateError{Encoding: enc, Kind: KindUnknownEncoding, Err: err}
	}

	raw, err := readSource(path, size, onRead)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}

	text, err := codec.Decode(raw)
	if err != nil {
		return nil, &CandidateError{Encoding: enc, Kind: KindDecode, Err: err}
	}

	table, err = ParseTable(bytes.NewReader(text))
	if err != nil {
		kind := KindOther
		var pe *ParseError
		if errors.As(err, &pe) {
			kind = KindParse
		}
		return nil, &CandidateError{Encoding: enc, Kind: kind, Err: err}
	}
	return table, nil
}

// readSource opens path for one attempt and reads it fully. The file is
// closed on every return path.
func readSource(path string, size int64, onRead func(read, total int64)) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := NewCountingReader(f, size, onRead)
	buf := bytes.NewBuffer(make([]byte, 0, size+bytes.MinRead))
	if _, err := io.Copy(buf, cr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
