package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvutf8/internal/logging"
)

// OutputSuffix is appended to the source file's stem by DefaultOutputPath.
const OutputSuffix = "_utf8"

// Converter runs detect, resolve and write for one file at a time. A
// Converter holds no per-file state and may be shared between goroutines.
type Converter struct {
	sampleSize int
	overwrite  bool
	progress   ProgressFunc
}

// Option configures a Converter.
type Option func(*Converter)

// WithSampleSize sets how many bytes detection reads. Non-positive values
// select DefaultSampleSize.
func WithSampleSize(n int) Option {
	return func(c *Converter) {
		if n <= 0 {
			n = DefaultSampleSize
		}
		c.sampleSize = n
	}
}

// WithOverwrite allows Convert to replace an existing destination.
func WithOverwrite(overwrite bool) Option {
	return func(c *Converter) { c.overwrite = overwrite }
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Converter) { c.progress = fn }
}

// NewConverter creates a Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{sampleSize: DefaultSampleSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SampleSize returns the detection sample size in bytes.
func (c *Converter) SampleSize() int { return c.sampleSize }

// DefaultOutputPath returns "<dir>/<stem>_utf8.csv" for src.
func DefaultOutputPath(src string) string {
	dir := filepath.Dir(src)
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+OutputSuffix+".csv")
}

// Inspection is what detection alone tells about a file.
type Inspection struct {
	Source     string          `json:"source"`
	Detection  DetectionResult `json:"detection"`
	Candidates []string        `json:"candidates"`
}

// Inspect detects src's encoding and returns the candidate order a
// conversion would use. A detection failure is returned as a
// *DetectionError together with the inspection.
func (c *Converter) Inspect(ctx context.Context, src string) (*Inspection, error) {
	d := Detect(src, c.sampleSize)
	ins := &Inspection{Source: src, Detection: Describe(d)}

	candidates, err := BuildCandidates(d)
	if err != nil {
		var de *DetectionError
		if errors.As(err, &de) {
			de.Path = src
		}
		logging.FromContext(ctx).Warn("detection failed", "source", src, "error", err)
		return ins, err
	}
	ins.Candidates = candidates
	return ins, nil
}

// Convert detects src's encoding, resolves it against the candidate list and
// writes the table to dst as UTF-8. An empty dst selects DefaultOutputPath.
//
// On failure the partially filled Result is returned with the error, so
// callers can still show the detection and attempted encodings.
func (c *Converter) Convert(ctx context.Context, src, dst string) (*Result, error) {
	start := time.Now()
	if dst == "" {
		dst = DefaultOutputPath(src)
	}

	res := &Result{ID: uuid.NewString(), Source: src, Destination: dst}
	logger := logging.WithFields(ctx, "conversion_id", res.ID, "source", src)
	ctx = logging.NewContext(ctx, logger)
	logger.Info("conversion started", "destination", dst, "sample_size", c.sampleSize)

	fail := func(err error) (*Result, error) {
		res.Duration = time.Since(start)
		logger.Error("conversion failed", "error", err, "duration_ms", res.Duration.Milliseconds())
		return res, err
	}

	c.progress.emit(Progress{Phase: PhaseDetecting})
	d := Detect(src, c.sampleSize)
	res.Detection = Describe(d)
	detected := Progress{Phase: PhaseDetected}
	if g, ok := d.(Guess); ok {
		detected.Encoding = g.Encoding
	}
	c.progress.emit(detected)
	logDetection(logger, d)

	candidates, err := BuildCandidates(d)
	if err != nil {
		var de *DetectionError
		if errors.As(err, &de) {
			de.Path = src
		}
		return fail(err)
	}
	res.Candidates = candidates

	resolver := Resolver{OnProgress: c.progress}
	outcome, err := resolver.Try(ctx, src, candidates)
	if err != nil {
		var ee *ExhaustionError
		var se *SourceError
		switch {
		case errors.As(err, &ee):
			res.Attempts = ee.Attempts
		case errors.As(err, &se):
			res.Attempts = se.Attempts
		}
		return fail(err)
	}

	res.Encoding = outcome.Encoding
	res.Attempts = outcome.Attempts
	res.Rows = outcome.Table.NumRows()
	res.Skipped = outcome.Table.Skipped

	if !c.overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fail(fmt.Errorf("%w: %s", ErrDestinationExists, dst))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fail(&WriteError{Path: dst, Err: err})
		}
	}

	c.progress.emit(Progress{Phase: PhaseWriting, Encoding: outcome.Encoding})
	if err := WriteCSV(dst, outcome.Table); err != nil {
		return fail(err)
	}
	c.progress.emit(Progress{Phase: PhaseWritten, Encoding: outcome.Encoding})

	res.Duration = time.Since(start)
	logger.Info("conversion completed",
		"encoding", res.Encoding,
		"attempts", len(res.Attempts),
		"rows", res.Rows,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func logDetection(logger *slog.Logger, d Detection) {
	switch v := d.(type) {
	case Guess:
		logger.Info("encoding detected", "encoding", v.Encoding, "confidence", v.Confidence)
	case NoSignal:
		logger.Info("detector produced no signal")
	case DetectionFailure:
		logger.Warn("detection failed", "reason", v.Reason, "error", v.Err)
	}
}
