package core

import (
	"strings"
)

const (
	// UTF7Name is the candidate name used for UTF-7.
	UTF7Name = "utf-7"

	// ConfidenceThreshold is the detector confidence below which UTF-7 is
	// tried before the guess.
	ConfidenceThreshold = 0.85
)

// Fallbacks are appended to every candidate list, in this order.
var Fallbacks = []string{"utf-8", "latin1", "iso-8859-1", "windows-1252", "cp1252"}

// BuildCandidates returns the ordered, case-insensitively distinct list of
// encodings to try for d. A DetectionFailure yields a *DetectionError and no
// candidates.
//
// UTF-7 goes first when the guess is ASCII-flavoured, below
// ConfidenceThreshold, or absent; a "+AF8-" in otherwise plain text is the
// typical symptom. Otherwise it is tried after the guess, before Fallbacks.
func BuildCandidates(d Detection) ([]string, error) {
	var (
		guess      string
		confidence float64
	)

	switch v := d.(type) {
	case DetectionFailure:
		return nil, &DetectionError{Reason: v.Reason, Err: v.Err}
	case Guess:
		guess = strings.TrimSpace(v.Encoding)
		confidence = v.Confidence
	case NoSignal, nil:
	}

	var list []string
	if guess != "" && !strings.EqualFold(guess, UTF7Name) {
		list = append(list, guess)
	}

	if !containsFold(list, UTF7Name) {
		early := guess == "" ||
			strings.Contains(strings.ToLower(guess), "ascii") ||
			confidence < ConfidenceThreshold
		if early {
			list = append([]string{UTF7Name}, list...)
		} else {
			list = append(list, UTF7Name)
		}
	}

	for _, fb := range Fallbacks {
		if !containsFold(list, fb) {
			list = append(list, fb)
		}
	}

	return dedupFold(list), nil
}

func containsFold(list []string, name string) bool {
	for _, s := range list {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// dedupFold drops empty names and later case-insensitive duplicates.
func dedupFold(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
