package core

// streaming.go holds the io.Reader wrappers used on each attempt:
//
//   - CountingReader: counts raw bytes read from the source for progress
//   - BOMSkippingReader: drops a UTF-8 byte order mark from decoded text
//   - quoteTracker: notices input that ends inside a quoted field, which the
//     lazy-quote CSV reader would otherwise accept silently, and closes a
//     quoted field at its delimiter when text follows the closing quote

import (
	"bytes"
	"io"
)

// progressStep is how many bytes pass between progress callbacks when the
// total size is unknown.
const progressStep = 1 << 20

// CountingReader wraps an io.Reader and tracks bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown

	onProgress func(read, total int64)
	lastPct    int64
	nextStep   int64
}

// NewCountingReader creates a counting reader. onProgress may be nil; it is
// called when the percentage read changes (or every progressStep bytes if
// total is unknown) and once at EOF.
func NewCountingReader(r io.Reader, total int64, onProgress func(read, total int64)) *CountingReader {
	return &CountingReader{
		reader:     r,
		Total:      total,
		onProgress: onProgress,
		lastPct:    -1,
		nextStep:   progressStep,
	}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)

	if r.onProgress != nil {
		switch {
		case err == io.EOF:
			r.onProgress(r.BytesRead, r.Total)
		case n == 0:
		case r.Total > 0:
			if pct := r.BytesRead * 100 / r.Total; pct != r.lastPct {
				r.lastPct = pct
				r.onProgress(r.BytesRead, r.Total)
			}
		case r.BytesRead >= r.nextStep:
			r.nextStep = r.BytesRead + progressStep
			r.onProgress(r.BytesRead, r.Total)
		}
	}
	return n, err
}

// Progress returns the read progress as a percentage (0-100), or 0 if the
// total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// BOMSkippingReader drops a leading UTF-8 BOM (0xEF 0xBB 0xBF). Decoders for
// BOM-carrying encodings emit U+FEFF as exactly those bytes, so this also
// covers UTF-16 and UTF-32 input once decoded.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	head    []byte // bytes read while checking that were not a BOM
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		buf := make([]byte, len(bomUTF8))
		n, err := io.ReadFull(r.reader, buf)
		switch err {
		case nil, io.EOF, io.ErrUnexpectedEOF:
		default:
			return 0, err
		}
		if !bytes.Equal(buf[:n], bomUTF8) {
			r.head = buf[:n]
		}
	}

	if len(r.head) > 0 {
		n := copy(p, r.head)
		r.head = r.head[n:]
		return n, nil
	}
	return r.reader.Read(p)
}

// quoteTracker follows RFC 4180 quoting as bytes pass through. A quote opens
// a quoted field only at the start of a field; doubled quotes inside one are
// escapes.
//
// Text between a closing quote and the next comma or line break belongs to
// the same field, so "x"y reads as xy. encoding/csv in lazy mode would
// instead keep the field open until some later quote, so the tracker rewrites
// that tail into the quoted part: "x"y,1 is passed on as "xy",1.
type quoteTracker struct {
	reader io.Reader
	buf    []byte
	out    []byte
	pos    int
	err    error

	line       int
	fieldStart bool
	inQuote    bool
	sawQuote   bool // inside a quoted field, the previous byte was '"' (held back)
	tail       bool // unquoted text after a closing quote
	pendingCR  bool // a '\r' held back until the next byte shows if it ends the line
	open       bool
	openLine   int
}

func newQuoteTracker(r io.Reader) *quoteTracker {
	return &quoteTracker{reader: r, buf: make([]byte, 32*1024), line: 1, fieldStart: true}
}

func (q *quoteTracker) Read(p []byte) (int, error) {
	for q.pos == len(q.out) {
		if q.err != nil {
			return 0, q.err
		}
		q.out, q.pos = q.out[:0], 0

		n, err := q.reader.Read(q.buf)
		for _, c := range q.buf[:n] {
			q.step(c)
		}
		if err == io.EOF {
			q.finish()
		}
		q.err = err
	}

	n := copy(p, q.out[q.pos:])
	q.pos += n
	return n, nil
}

func (q *quoteTracker) step(c byte) {
	switch {
	case q.pendingCR:
		q.pendingCR = false
		if c == '\n' {
			q.endQuoted("\r\n")
			q.line++
			return
		}
		// A lone CR is field text, as it is for unquoted fields.
		q.sawQuote = false
		q.tail = true
		q.out = append(q.out, '\r')
		q.stepTail(c)

	case q.sawQuote:
		q.sawQuote = false
		switch c {
		case '"':
			q.out = append(q.out, '"', '"')
		case ',':
			q.endQuoted(",")
		case '\n':
			q.endQuoted("\n")
			q.line++
		case '\r':
			q.sawQuote = true
			q.pendingCR = true
		default:
			q.tail = true
			q.out = append(q.out, c)
		}

	case q.tail:
		q.stepTail(c)

	case q.inQuote:
		if c == '"' {
			q.sawQuote = true
			return
		}
		if c == '\n' {
			q.line++
		}
		q.out = append(q.out, c)

	default:
		q.out = append(q.out, c)
		switch c {
		case '"':
			if q.fieldStart {
				q.inQuote = true
				q.openLine = q.line
			}
			q.fieldStart = false
		case ',':
			q.fieldStart = true
		case '\n':
			q.line++
			q.fieldStart = true
		case '\r':
		default:
			q.fieldStart = false
		}
	}
}

// stepTail handles a byte of unquoted text after a closing quote. The output
// is still inside the quoted field, so quotes are doubled.
func (q *quoteTracker) stepTail(c byte) {
	switch c {
	case '"':
		q.out = append(q.out, '"', '"')
	case ',':
		q.endQuoted(",")
	case '\n':
		q.endQuoted("\n")
		q.line++
	case '\r':
		q.pendingCR = true
	default:
		q.out = append(q.out, c)
	}
}

// endQuoted closes the quoted field in the output and writes sep after it.
func (q *quoteTracker) endQuoted(sep string) {
	q.out = append(q.out, '"')
	q.out = append(q.out, sep...)
	q.inQuote, q.sawQuote, q.tail = false, false, false
	q.fieldStart = sep != ""
}

// finish flushes held back bytes at EOF.
func (q *quoteTracker) finish() {
	switch {
	case q.pendingCR:
		q.pendingCR = false
		q.endQuoted("\r")
	case q.sawQuote, q.tail:
		q.endQuoted("")
	case q.inQuote:
		q.open = true
	}
}

// unterminated reports whether the input ended inside a quoted field, and
// the line that field started on. It is valid once Read has returned io.EOF.
func (q *quoteTracker) unterminated() (int, bool) {
	return q.openLine, q.open
}
