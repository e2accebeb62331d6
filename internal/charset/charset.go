// Package charset resolves encoding names to strict decoders.
//
// Names come from two places: the statistical detector (chardet/IANA style
// names such as "ISO-8859-1" or "Shift_JIS") and the fixed fallback list
// (Python-style aliases such as "latin1" or "cp1252"). Resolution order is:
//
//  1. the built-in alias table (ASCII, UTF-7, UTF-8/16/32, Latin-1, CJK),
//  2. golang.org/x/text/encoding/ianaindex,
//  3. WHATWG labels via golang.org/x/net/html/charset.
//
// The WHATWG table is consulted last on purpose: it folds "latin1",
// "iso-8859-1" and "ascii" into windows-1252, which is not what a caller
// asking for those names means.
//
// Every decoder is strict: bytes that are not valid in the encoding produce a
// *DecodeError instead of U+FFFD replacement characters.
package charset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned by Lookup for names no index recognises.
var ErrUnknownEncoding = errors.New("unknown encoding")

// DecodeError reports bytes that are invalid in the requested encoding.
// Offset is the position in the source where decoding stopped, or -1 when
// the decoder substituted an undefined sequence without reporting where.
type DecodeError struct {
	Encoding string
	Offset   int
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("'%s' codec can't decode input: %v", e.Encoding, e.Err)
	}
	return fmt.Sprintf("'%s' codec can't decode byte at offset %d: %v", e.Encoding, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type codecKind int

const (
	kindTransform codecKind = iota
	kindASCII
	kindUTF8
)

// Codec decodes bytes of one named encoding into UTF-8.
type Codec struct {
	// Name is the name the codec was looked up with.
	Name string

	kind codecKind
	enc  encoding.Encoding

	// undefined lists source bytes the encoding leaves unassigned even
	// though the decoder maps them.
	undefined string
}

var (
	asciiCodec = Codec{kind: kindASCII}
	utf8Codec  = Codec{kind: kindUTF8}
)

func transformCodec(e encoding.Encoding) Codec {
	return Codec{kind: kindTransform, enc: e}
}

// cp1252Undefined are the windows-1252 bytes with no assigned character.
// charmap.Windows1252 passes them through as C1 controls.
const cp1252Undefined = "\x81\x8d\x8f\x90\x9d"

var cp1252Codec = Codec{kind: kindTransform, enc: charmap.Windows1252, undefined: cp1252Undefined}

// builtin is keyed by normalized name (see normalize).
var builtin = map[string]Codec{
	"ascii":          asciiCodec,
	"us-ascii":       asciiCodec,
	"646":            asciiCodec,
	"ansi-x3.4-1968": asciiCodec,

	"utf-7":             transformCodec(UTF7),
	"utf7":              transformCodec(UTF7),
	"u7":                transformCodec(UTF7),
	"unicode-1-1-utf-7": transformCodec(UTF7),

	"utf-8":     utf8Codec,
	"utf8":      utf8Codec,
	"u8":        utf8Codec,
	"utf-8-sig": utf8Codec,
	"utf8-sig":  utf8Codec,

	"utf-16":    transformCodec(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)),
	"utf16":     transformCodec(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)),
	"utf-16le":  transformCodec(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)),
	"utf-16-le": transformCodec(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)),
	"utf-16be":  transformCodec(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)),
	"utf-16-be": transformCodec(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)),

	"utf-32":    transformCodec(utf32.UTF32(utf32.LittleEndian, utf32.UseBOM)),
	"utf32":     transformCodec(utf32.UTF32(utf32.LittleEndian, utf32.UseBOM)),
	"utf-32le":  transformCodec(utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)),
	"utf-32-le": transformCodec(utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)),
	"utf-32be":  transformCodec(utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)),
	"utf-32-be": transformCodec(utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)),

	"latin1":     transformCodec(charmap.ISO8859_1),
	"latin-1":    transformCodec(charmap.ISO8859_1),
	"l1":         transformCodec(charmap.ISO8859_1),
	"iso-8859-1": transformCodec(charmap.ISO8859_1),
	"iso8859-1":  transformCodec(charmap.ISO8859_1),
	"8859":       transformCodec(charmap.ISO8859_1),

	"windows-1252": cp1252Codec,
	"cp1252":       cp1252Codec,

	"shift-jis":   transformCodec(japanese.ShiftJIS),
	"sjis":        transformCodec(japanese.ShiftJIS),
	"cp932":       transformCodec(japanese.ShiftJIS),
	"euc-jp":      transformCodec(japanese.EUCJP),
	"iso-2022-jp": transformCodec(japanese.ISO2022JP),
	"euc-kr":      transformCodec(korean.EUCKR),
	"cp949":       transformCodec(korean.EUCKR),
	"gb-18030":    transformCodec(simplifiedchinese.GB18030),
	"gb18030":     transformCodec(simplifiedchinese.GB18030),
	"gbk":         transformCodec(simplifiedchinese.GBK),
	"gb2312":      transformCodec(simplifiedchinese.GBK),
	"big5":        transformCodec(traditionalchinese.Big5),
}

// normalize lowercases and trims a name and folds '_' into '-'.
func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// Lookup returns the strict codec for name.
func Lookup(name string) (Codec, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Codec{}, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	}

	if c, ok := builtin[normalize(trimmed)]; ok {
		c.Name = name
		return c, nil
	}

	// ianaindex returns (nil, nil) for registered-but-unsupported charsets.
	if e, err := ianaindex.IANA.Encoding(trimmed); err == nil && e != nil {
		c := transformCodec(e)
		c.Name = name
		return c, nil
	}

	if e, _ := htmlcharset.Lookup(trimmed); e != nil {
		c := transformCodec(e)
		c.Name = name
		return c, nil
	}

	return Codec{}, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// Decode converts src to UTF-8, failing on the first byte sequence that is
// not valid in the codec's encoding. The result may alias src.
func (c Codec) Decode(src []byte) ([]byte, error) {
	switch c.kind {
	case kindASCII:
		if i := firstNonASCII(src); i >= 0 {
			return nil, &DecodeError{Encoding: c.Name, Offset: i,
				Err: fmt.Errorf("ordinal 0x%02x not in range(128)", src[i])}
		}
		return src, nil

	case kindUTF8:
		if i := firstInvalidUTF8(src); i >= 0 {
			return nil, &DecodeError{Encoding: c.Name, Offset: i,
				Err: fmt.Errorf("invalid start byte 0x%02x", src[i])}
		}
		return src, nil
	}

	if i := indexAnyByte(src, c.undefined); i >= 0 {
		return nil, &DecodeError{Encoding: c.Name, Offset: i,
			Err: fmt.Errorf("byte 0x%02x maps to <undefined>", src[i])}
	}

	out, n, err := transform.Bytes(c.enc.NewDecoder(), src)
	if err != nil {
		return nil, &DecodeError{Encoding: c.Name, Offset: n, Err: err}
	}
	// x/text decoders substitute U+FFFD for undefined sequences.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, &DecodeError{Encoding: c.Name, Offset: -1,
			Err: errors.New("undefined byte sequence")}
	}
	return out, nil
}

// indexAnyByte returns the offset of the first byte of data found in set, or
// -1. bytes.IndexAny works on runes and would misread set's high bytes.
func indexAnyByte(data []byte, set string) int {
	if set == "" {
		return -1
	}
	for i, b := range data {
		if strings.IndexByte(set, b) >= 0 {
			return i
		}
	}
	return -1
}

// IsASCII reports whether data contains only 7-bit bytes.
func IsASCII(data []byte) bool {
	return firstNonASCII(data) < 0
}

func firstNonASCII(data []byte) int {
	for i, b := range data {
		if b >= utf8.RuneSelf {
			return i
		}
	}
	return -1
}

// firstInvalidUTF8 returns the offset of the first invalid UTF-8 sequence, or -1.
func firstInvalidUTF8(data []byte) int {
	if utf8.Valid(data) {
		return -1
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
