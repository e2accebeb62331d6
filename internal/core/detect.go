package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/saintfish/chardet"

	"github.com/JonMunkholm/csvutf8/internal/charset"
)

// DefaultSampleSize is the number of bytes the detector reads when the caller
// supplies no usable size.
const DefaultSampleSize = 200000

// Detection is the detector's verdict on a file. It is exactly one of
// Guess, NoSignal or DetectionFailure.
type Detection interface {
	detection()
}

// Guess is a named encoding with a confidence in [0,1].
type Guess struct {
	Encoding   string
	Confidence float64
}

// NoSignal means the classifier could not name an encoding. It is not an
// error; the resolver treats it as confidence 0.
type NoSignal struct{}

// FailureReason says why detection could not run.
type FailureReason string

const (
	ReasonNotFound    FailureReason = "not found"
	ReasonEmptySample FailureReason = "empty sample"
	ReasonUnreadable  FailureReason = "unreadable"
	ReasonInternal    FailureReason = "internal error"
)

// DetectionFailure means the file could not be sampled or classified.
type DetectionFailure struct {
	Reason FailureReason
	Err    error
}

func (Guess) detection()            {}
func (NoSignal) detection()         {}
func (DetectionFailure) detection() {}

// DetectionResult is the flat view of a Detection used for display and JSON.
// Exactly one of Encoding or Error is set, unless the classifier produced no
// signal, in which case both are nil and Confidence is 0.
type DetectionResult struct {
	Encoding   *string `json:"encoding"`
	Confidence float64 `json:"confidence"`
	Error      *string `json:"error"`
}

// Describe flattens d.
func Describe(d Detection) DetectionResult {
	switch v := d.(type) {
	case Guess:
		enc := v.Encoding
		return DetectionResult{Encoding: &enc, Confidence: v.Confidence}
	case DetectionFailure:
		msg := string(v.Reason)
		if v.Err != nil {
			msg = fmt.Sprintf("%s: %v", v.Reason, v.Err)
		}
		return DetectionResult{Error: &msg}
	default:
		return DetectionResult{}
	}
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
)

// Detect samples at most sampleBytes bytes from the start of path and
// classifies them. It never panics and never returns nil.
func Detect(path string, sampleBytes int) (d Detection) {
	defer func() {
		if r := recover(); r != nil {
			d = DetectionFailure{Reason: ReasonInternal, Err: fmt.Errorf("panic during detection: %v", r)}
		}
	}()

	if sampleBytes <= 0 {
		sampleBytes = DefaultSampleSize
	}

	sample, err := readSample(path, sampleBytes)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DetectionFailure{Reason: ReasonNotFound, Err: err}
		}
		return DetectionFailure{Reason: ReasonUnreadable, Err: err}
	}
	if len(sample) == 0 {
		return DetectionFailure{Reason: ReasonEmptySample, Err: errors.New("file is empty")}
	}

	return classify(sample)
}

func readSample(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, int64(n)))
}

// classify runs the BOM sniff, the 7-bit check, then the statistical
// detector. UTF-32 is checked before UTF-16 since their LE BOMs share a prefix.
func classify(sample []byte) Detection {
	switch {
	case bytes.HasPrefix(sample, bomUTF32LE), bytes.HasPrefix(sample, bomUTF32BE):
		return Guess{Encoding: "UTF-32", Confidence: 1}
	case bytes.HasPrefix(sample, bomUTF8):
		return Guess{Encoding: "UTF-8-SIG", Confidence: 1}
	case bytes.HasPrefix(sample, bomUTF16LE), bytes.HasPrefix(sample, bomUTF16BE):
		return Guess{Encoding: "UTF-16", Confidence: 1}
	}

	// ESC introduces ISO-2022 shift sequences, which are 7-bit too.
	if charset.IsASCII(sample) && bytes.IndexByte(sample, 0x1B) < 0 {
		return Guess{Encoding: "ascii", Confidence: 1}
	}

	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		if errors.Is(err, chardet.NotDetectedError) {
			return NoSignal{}
		}
		return DetectionFailure{Reason: ReasonInternal, Err: err}
	}
	if res == nil || res.Charset == "" || res.Confidence <= 0 {
		return NoSignal{}
	}

	conf := float64(res.Confidence) / 100
	if conf > 1 {
		conf = 1
	}
	return Guess{Encoding: res.Charset, Confidence: conf}
}
