package core

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDetect_Failures(t *testing.T) {
	dir := t.TempDir()
	empty := writeTestFile(t, "empty.csv", nil)

	tests := []struct {
		name string
		path string
		want FailureReason
	}{
		{"missing file", filepath.Join(dir, "nope.csv"), ReasonNotFound},
		{"empty file", empty, ReasonEmptySample},
		{"directory", dir, ReasonUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Detect(tt.path, 1024)
			f, ok := d.(DetectionFailure)
			if !ok {
				t.Fatalf("Detect = %#v, want DetectionFailure", d)
			}
			if f.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", f.Reason, tt.want)
			}

			r := Describe(d)
			if r.Encoding != nil || r.Error == nil || r.Confidence != 0 {
				t.Errorf("Describe = %+v, want only Error set", r)
			}
		})
	}
}

func TestDetect_Signatures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Guess
	}{
		{"ascii", []byte("id,name\n1,foo+AF8-bar\n"), Guess{"ascii", 1}},
		{"utf-8 bom", []byte("\xEF\xBB\xBFid,name\n1,caf\xC3\xA9\n"), Guess{"UTF-8-SIG", 1}},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'a', 0, ',', 0, 'b', 0}, Guess{"UTF-16", 1}},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0, 'a', 0, ',', 0, 'b'}, Guess{"UTF-16", 1}},
		{"utf-32le bom", []byte{0xFF, 0xFE, 0, 0, 'a', 0, 0, 0}, Guess{"UTF-32", 1}},
		{"utf-32be bom", []byte{0, 0, 0xFE, 0xFF, 0, 0, 0, 'a'}, Guess{"UTF-32", 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, "in.csv", tt.data)
			got := Detect(path, DefaultSampleSize)
			if got != tt.want {
				t.Errorf("Detect = %#v, want %#v", got, tt.want)
			}

			r := Describe(got)
			if r.Encoding == nil || *r.Encoding != tt.want.Encoding || r.Error != nil {
				t.Errorf("Describe = %+v", r)
			}
		})
	}
}

func TestDetect_SampleIsBounded(t *testing.T) {
	data := []byte(strings.Repeat("a", 64) + "\xE9\xE9\xE9")
	path := writeTestFile(t, "in.csv", data)

	if got := Detect(path, 64); got != (Guess{"ascii", 1}) {
		t.Errorf("Detect with 64-byte sample = %#v, want ascii", got)
	}
	if got, ok := Detect(path, 0).(Guess); ok && got.Encoding == "ascii" {
		t.Errorf("Detect with default sample should see the high bytes, got %#v", got)
	}
}

func TestDetect_NeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sizes := []int{1, 2, 3, 7, 64, 512, 4096}

	for _, n := range sizes {
		data := make([]byte, n)
		rng.Read(data)
		path := writeTestFile(t, "rand.bin", data)

		for _, sample := range []int{-1, 0, 1, n / 2, n, n * 2} {
			d := Detect(path, sample)
			switch v := d.(type) {
			case Guess:
				if v.Confidence < 0 || v.Confidence > 1 {
					t.Errorf("confidence %v out of range", v.Confidence)
				}
			case NoSignal, DetectionFailure:
			default:
				t.Errorf("Detect(%d bytes, sample %d) = %#v", n, sample, d)
			}
		}
	}
}

func TestDetect_Statistical(t *testing.T) {
	text := strings.Repeat("name,city\nJosé,Zürich\nRenée,Besançon\nFrançois,Köln\n", 20)
	path := writeTestFile(t, "utf8.csv", []byte(text))

	switch v := Detect(path, DefaultSampleSize).(type) {
	case Guess:
		if v.Encoding == "" || v.Confidence <= 0 || v.Confidence > 1 {
			t.Errorf("unexpected guess %#v", v)
		}
	case NoSignal:
	default:
		t.Errorf("Detect = %#v, want Guess or NoSignal", v)
	}
}

func TestDescribe_NoSignal(t *testing.T) {
	r := Describe(NoSignal{})
	if r.Encoding != nil || r.Error != nil || r.Confidence != 0 {
		t.Errorf("Describe(NoSignal) = %+v, want zero value", r)
	}
}
