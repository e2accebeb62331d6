package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrUnterminatedQuote is reported when the input ends inside a quoted field.
var ErrUnterminatedQuote = errors.New("EOF inside quoted field")

// ParseError is a structural problem with the delimited text.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseTable reads comma-separated UTF-8 text. A leading byte order mark is
// dropped and the first record becomes the header.
//
// Parsing is lenient the way spreadsheet exports need: stray quotes inside
// unquoted fields are kept literally, text after a closing quote joins the
// field ("x"y reads as xy), short rows are padded with empty
// fields, and rows with more fields than the header are skipped and listed in
// Table.Skipped. Input that ends inside a quoted field, or has no header, is
// an error.
func ParseTable(r io.Reader) (*Table, error) {
	qt := newQuoteTracker(NewBOMSkippingReader(r))

	reader := csv.NewReader(qt)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	table := &Table{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.StartLine, Err: pe.Err}
			}
			return nil, err
		}

		if table.Header == nil {
			table.Header = record
			continue
		}

		switch {
		case len(record) > len(table.Header):
			line, _ := reader.FieldPos(0)
			table.Skipped = append(table.Skipped, SkippedRow{Line: line, Fields: len(record)})
			continue
		case len(record) < len(table.Header):
			padded := make([]string, len(table.Header))
			copy(padded, record)
			record = padded
		}
		table.Rows = append(table.Rows, record)
	}

	if line, open := qt.unterminated(); open {
		return nil, &ParseError{Line: line, Err: ErrUnterminatedQuote}
	}
	if len(table.Header) == 0 {
		return nil, &ParseError{Err: ErrNoColumns}
	}
	return table, nil
}
