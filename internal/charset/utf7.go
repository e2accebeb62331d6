package charset

// utf7.go implements RFC 2152 (UTF-7) as an x/text encoding.
//
// golang.org/x/text ships no UTF-7 codec, yet UTF-7 is exactly the encoding
// spreadsheet exports get wrong most often: an underscore written by a UTF-7
// encoder shows up as "+AF8-" when the file is read as ASCII or UTF-8.
// Both transformers are stateful so they work under transform.Reader with
// arbitrarily long shift sequences.

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrInvalidUTF7 is wrapped by every error the UTF-7 decoder returns.
var ErrInvalidUTF7 = errors.New("invalid utf-7 sequence")

// UTF7 is the UTF-7 encoding (RFC 2152).
var UTF7 encoding.Encoding = utf7Encoding{}

type utf7Encoding struct{}

func (utf7Encoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: &utf7Decoder{}}
}

func (utf7Encoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: &utf7Encoder{}}
}

func (utf7Encoding) String() string { return "UTF-7" }

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// base64Value returns the 6-bit value of c, or -1 if c is outside the alphabet.
func base64Value(c byte) int {
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c - 'A')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 26
	case c >= '0' && c <= '9':
		return int(c-'0') + 52
	case c == '+':
		return 62
	case c == '/':
		return 63
	}
	return -1
}

// isDirect reports whether r belongs to RFC 2152 set D plus the rule-3 whitespace.
// Set O characters ("!#$%&*;<=>@[]^_`{|}) are shifted on encode, which is
// what produces the "+AF8-" signature for '_'.
func isDirect(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case '\'', '(', ')', ',', '-', '.', '/', ':', '?', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

func invalidUTF7(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidUTF7, fmt.Sprintf(format, args...))
}

type utf7Decoder struct {
	inShift bool
	sawB64  bool   // current shift sequence consumed at least one base64 char
	bits    uint32 // pending bits, low nbits are meaningful
	nbits   uint
	high    uint16 // pending high surrogate
}

func (d *utf7Decoder) Reset() { *d = utf7Decoder{} }

func (d *utf7Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]

		if d.inShift {
			if v := base64Value(c); v >= 0 {
				if len(dst)-nDst < utf8.UTFMax {
					return nDst, nSrc, transform.ErrShortDst
				}
				d.sawB64 = true
				d.bits = d.bits<<6 | uint32(v)
				d.nbits += 6
				if d.nbits >= 16 {
					unit := uint16(d.bits >> (d.nbits - 16))
					d.nbits -= 16
					d.bits &= 1<<d.nbits - 1
					n, uerr := d.emitUnit(dst[nDst:], unit)
					if uerr != nil {
						return nDst, nSrc, uerr
					}
					nDst += n
				}
				nSrc++
				continue
			}

			if !d.sawB64 {
				if c != '-' {
					return nDst, nSrc, invalidUTF7("'+' followed by %q", c)
				}
				// "+-" is a literal plus sign.
				if len(dst)-nDst < 1 {
					return nDst, nSrc, transform.ErrShortDst
				}
				dst[nDst] = '+'
				nDst++
				nSrc++
				d.inShift = false
				continue
			}

			if serr := d.endShift(); serr != nil {
				return nDst, nSrc, serr
			}
			if c == '-' {
				nSrc++
			}
			continue
		}

		if c >= utf8.RuneSelf {
			return nDst, nSrc, invalidUTF7("unexpected byte 0x%02x outside shift sequence", c)
		}
		if c == '+' {
			d.inShift = true
			d.sawB64 = false
			nSrc++
			continue
		}
		if len(dst)-nDst < 1 {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = c
		nDst++
		nSrc++
	}

	if atEOF && d.inShift {
		if !d.sawB64 {
			return nDst, nSrc, invalidUTF7("unterminated shift sequence")
		}
		if serr := d.endShift(); serr != nil {
			return nDst, nSrc, serr
		}
	}
	return nDst, nSrc, nil
}

// emitUnit writes the rune for one UTF-16 code unit, pairing surrogates.
func (d *utf7Decoder) emitUnit(dst []byte, unit uint16) (int, error) {
	r := rune(unit)
	switch {
	case d.high != 0:
		if !utf16.IsSurrogate(r) || unit < 0xDC00 {
			return 0, invalidUTF7("high surrogate U+%04X not followed by low surrogate", d.high)
		}
		r = utf16.DecodeRune(rune(d.high), r)
		d.high = 0
	case unit >= 0xD800 && unit < 0xDC00:
		d.high = unit
		return 0, nil
	case unit >= 0xDC00 && unit < 0xE000:
		return 0, invalidUTF7("unpaired low surrogate U+%04X", unit)
	}
	return utf8.EncodeRune(dst, r), nil
}

func (d *utf7Decoder) endShift() error {
	defer func() {
		d.inShift = false
		d.sawB64 = false
		d.bits, d.nbits = 0, 0
	}()
	if d.high != 0 {
		d.high = 0
		return invalidUTF7("shift sequence ends inside a surrogate pair")
	}
	if d.nbits >= 6 {
		return invalidUTF7("partial character in shift sequence")
	}
	if d.bits&(1<<d.nbits-1) != 0 {
		return invalidUTF7("non-zero padding bits in shift sequence")
	}
	return nil
}

type utf7Encoder struct {
	inShift bool
	bits    uint32
	nbits   uint
}

func (e *utf7Encoder) Reset() { *e = utf7Encoder{} }

func (e *utf7Encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 && !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}

		switch {
		case isDirect(r) || r == '+':
			// worst case: flush char, '-', then "+-"
			if len(dst)-nDst < 4 {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += e.closeShift(dst[nDst:])
			if r == '+' {
				dst[nDst], dst[nDst+1] = '+', '-'
				nDst += 2
			} else {
				dst[nDst] = byte(r)
				nDst++
			}
		default:
			// '+' plus at most 32 bits of base64 output
			if len(dst)-nDst < 7 {
				return nDst, nSrc, transform.ErrShortDst
			}
			if !e.inShift {
				dst[nDst] = '+'
				nDst++
				e.inShift = true
			}
			units := []uint16{uint16(r)}
			if r > 0xFFFF {
				hi, lo := utf16.EncodeRune(r)
				units = []uint16{uint16(hi), uint16(lo)}
			}
			for _, u := range units {
				e.bits = e.bits<<16 | uint32(u)
				e.nbits += 16
				for e.nbits >= 6 {
					dst[nDst] = base64Alphabet[(e.bits>>(e.nbits-6))&0x3F]
					nDst++
					e.nbits -= 6
				}
				e.bits &= 1<<e.nbits - 1
			}
		}
		nSrc += size
	}

	if atEOF && e.inShift {
		if len(dst)-nDst < 2 {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += e.closeShift(dst[nDst:])
	}
	return nDst, nSrc, nil
}

// closeShift flushes pending bits and terminates an open shift sequence.
func (e *utf7Encoder) closeShift(dst []byte) int {
	if !e.inShift {
		return 0
	}
	n := 0
	if e.nbits > 0 {
		dst[n] = base64Alphabet[(e.bits<<(6-e.nbits))&0x3F]
		n++
	}
	dst[n] = '-'
	n++
	e.inShift = false
	e.bits, e.nbits = 0, 0
	return n
}
