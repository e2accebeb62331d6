package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseTable(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantHeader  []string
		wantRows    [][]string
		wantSkipped []SkippedRow
	}{
		{
			name:       "simple",
			input:      "id,name\n1,alice\n2,bob\n",
			wantHeader: []string{"id", "name"},
			wantRows:   [][]string{{"1", "alice"}, {"2", "bob"}},
		},
		{
			name:       "utf-8 bom dropped",
			input:      "\xEF\xBB\xBFid,name\n1,alice\n",
			wantHeader: []string{"id", "name"},
			wantRows:   [][]string{{"1", "alice"}},
		},
		{
			name:       "crlf and no trailing newline",
			input:      "a,b\r\n1,2\r\n3,4",
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"1", "2"}, {"3", "4"}},
		},
		{
			name:       "header only",
			input:      "a,b\n",
			wantHeader: []string{"a", "b"},
		},
		{
			name:       "short rows padded",
			input:      "a,b,c\n1\n2,3\n",
			wantHeader: []string{"a", "b", "c"},
			wantRows:   [][]string{{"1", "", ""}, {"2", "3", ""}},
		},
		{
			name:        "long rows skipped",
			input:       "a,b\n1,2\n3,4,5\n6,7\n",
			wantHeader:  []string{"a", "b"},
			wantRows:    [][]string{{"1", "2"}, {"6", "7"}},
			wantSkipped: []SkippedRow{{Line: 3, Fields: 3}},
		},
		{
			name:       "quoted fields",
			input:      "a,b\n\"x,y\",\"line1\nline2\"\n\"say \"\"hi\"\"\",z\n",
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"x,y", "line1\nline2"}, {"say \"hi\"", "z"}},
		},
		{
			name:       "bare quote kept",
			input:      "a,b\n1,5\"7\n",
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"1", "5\"7"}},
		},
		{
			name:       "text after closing quote joins field",
			input:      "a,b\n\"x\"y,1\n2,3\n4,5\n",
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"xy", "1"}, {"2", "3"}, {"4", "5"}},
		},
		{
			name:       "space after closing quote",
			input:      "a,b\n\"x\" ,1\n2,3\n",
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"x ", "1"}, {"2", "3"}},
		},
		{
			name:       "quotes after closing quote kept",
			input:      "a,b\n\"a\"b\"c\",d\n",
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"ab\"c\"", "d"}},
		},
		{
			name:       "text after closing quote at eof",
			input:      "a\n\"x\"y",
			wantHeader: []string{"a"},
			wantRows:   [][]string{{"xy"}},
		},
		{
			name:       "quoted empty field in one column",
			input:      "name\nx\n\"\"\ny\n",
			wantHeader: []string{"name"},
			wantRows:   [][]string{{"x"}, {""}, {"y"}},
		},
		{
			name:       "blank lines ignored",
			input:      "a\n\n1\n\n2\n",
			wantHeader: []string{"a"},
			wantRows:   [][]string{{"1"}, {"2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseTable(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseTable: %v", err)
			}
			if !reflect.DeepEqual(table.Header, tt.wantHeader) {
				t.Errorf("Header = %q, want %q", table.Header, tt.wantHeader)
			}
			if len(table.Rows) != len(tt.wantRows) || (len(tt.wantRows) > 0 && !reflect.DeepEqual(table.Rows, tt.wantRows)) {
				t.Errorf("Rows = %q, want %q", table.Rows, tt.wantRows)
			}
			if !reflect.DeepEqual(table.Skipped, tt.wantSkipped) {
				t.Errorf("Skipped = %+v, want %+v", table.Skipped, tt.wantSkipped)
			}
		})
	}
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		wantLine int
	}{
		{"empty", "", ErrNoColumns, 0},
		{"only bom", "\xEF\xBB\xBF", ErrNoColumns, 0},
		{"only blank lines", "\n\n\r\n", ErrNoColumns, 0},
		{"unterminated quote", "id,name\n1,\"unterminated\n2,x\n", ErrUnterminatedQuote, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable(strings.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError", err)
			}
			if pe.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", pe.Line, tt.wantLine)
			}
		})
	}
}
