package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildCandidates(t *testing.T) {
	tests := []struct {
		name      string
		detection Detection
		want      []string
	}{
		{
			name:      "ascii guess puts utf-7 first",
			detection: Guess{Encoding: "ascii", Confidence: 0.99},
			want:      []string{"utf-7", "ascii", "utf-8", "latin1", "iso-8859-1", "windows-1252", "cp1252"},
		},
		{
			name:      "no signal",
			detection: NoSignal{},
			want:      []string{"utf-7", "utf-8", "latin1", "iso-8859-1", "windows-1252", "cp1252"},
		},
		{
			name:      "nil detection behaves like no signal",
			detection: nil,
			want:      []string{"utf-7", "utf-8", "latin1", "iso-8859-1", "windows-1252", "cp1252"},
		},
		{
			name:      "confident windows-1252",
			detection: Guess{Encoding: "Windows-1252", Confidence: 0.95},
			want:      []string{"Windows-1252", "utf-7", "utf-8", "latin1", "iso-8859-1", "cp1252"},
		},
		{
			name:      "confident utf-8 keeps detector spelling",
			detection: Guess{Encoding: "UTF-8", Confidence: 0.99},
			want:      []string{"UTF-8", "utf-7", "latin1", "iso-8859-1", "windows-1252", "cp1252"},
		},
		{
			name:      "low confidence latin",
			detection: Guess{Encoding: "ISO-8859-1", Confidence: 0.5},
			want:      []string{"utf-7", "ISO-8859-1", "utf-8", "latin1", "windows-1252", "cp1252"},
		},
		{
			name:      "threshold is inclusive for the guess",
			detection: Guess{Encoding: "Shift_JIS", Confidence: 0.85},
			want:      []string{"Shift_JIS", "utf-7", "utf-8", "latin1", "iso-8859-1", "windows-1252", "cp1252"},
		},
		{
			name:      "ascii flavoured name",
			detection: Guess{Encoding: "US-ASCII", Confidence: 1},
			want:      []string{"utf-7", "US-ASCII", "utf-8", "latin1", "iso-8859-1", "windows-1252", "cp1252"},
		},
		{
			name:      "utf-7 guess is not duplicated",
			detection: Guess{Encoding: "UTF-7", Confidence: 0.99},
			want:      []string{"utf-7", "utf-8", "latin1", "iso-8859-1", "windows-1252", "cp1252"},
		},
		{
			name:      "blank guess counts as no guess",
			detection: Guess{Encoding: "  ", Confidence: 0.99},
			want:      []string{"utf-7", "utf-8", "latin1", "iso-8859-1", "windows-1252", "cp1252"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildCandidates(tt.detection)
			if err != nil {
				t.Fatalf("BuildCandidates: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestBuildCandidates_DetectionFailure(t *testing.T) {
	cause := errors.New("boom")
	got, err := BuildCandidates(DetectionFailure{Reason: ReasonNotFound, Err: cause})
	if got != nil {
		t.Errorf("candidates = %q, want nil", got)
	}
	var de *DetectionError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DetectionError", err)
	}
	if de.Reason != ReasonNotFound || !errors.Is(err, cause) {
		t.Errorf("unexpected detection error: %+v", de)
	}
}

func TestBuildCandidates_Properties(t *testing.T) {
	guesses := []string{
		"", "ascii", "utf-8", "UTF-8", "utf-7", "UTF-16", "UTF-8-SIG", "ISO-8859-1",
		"latin1", "LATIN1", "windows-1252", "CP1252", "Shift_JIS", "EUC-JP", "GB18030",
		"Big5", "KOI8-R", "windows-1251", "ISO-8859-15", "UTF-32",
	}
	confidences := []float64{0, 0.1, 0.5, 0.84, 0.849, 0.85, 0.9, 1}

	for _, g := range guesses {
		for _, c := range confidences {
			list, err := BuildCandidates(Guess{Encoding: g, Confidence: c})
			if err != nil {
				t.Fatalf("BuildCandidates(%q, %v): %v", g, c, err)
			}

			seen := map[string]bool{}
			for _, name := range list {
				if strings.TrimSpace(name) == "" {
					t.Errorf("%q/%v: empty entry in %q", g, c, list)
				}
				key := strings.ToLower(name)
				if seen[key] {
					t.Errorf("%q/%v: duplicate %q in %q", g, c, name, list)
				}
				seen[key] = true
			}

			for _, fb := range Fallbacks {
				if !seen[fb] {
					t.Errorf("%q/%v: fallback %q missing from %q", g, c, fb, list)
				}
			}

			utf7 := indexFold(list, UTF7Name)
			if utf7 < 0 {
				t.Fatalf("%q/%v: utf-7 missing from %q", g, c, list)
			}

			early := g == "" || strings.Contains(strings.ToLower(g), "ascii") || c < ConfidenceThreshold
			switch {
			case strings.EqualFold(g, UTF7Name):
			case early:
				if utf7 != 0 {
					t.Errorf("%q/%v: utf-7 at %d, want first in %q", g, c, utf7, list)
				}
			default:
				if gi := indexFold(list, g); gi < 0 || gi >= utf7 {
					t.Errorf("%q/%v: utf-7 at %d should follow guess at %d in %q", g, c, utf7, gi, list)
				}
			}
		}
	}
}

func indexFold(list []string, name string) int {
	for i, s := range list {
		if strings.EqualFold(s, name) {
			return i
		}
	}
	return -1
}
