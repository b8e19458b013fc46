package source

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// Encoding is the character encoding of source text on disk.
// Content is always decoded to UTF-8 before it is stored in a File.
type Encoding uint8

const (
	UTF8 Encoding = iota
	Latin1
	ShiftJIS
	EUCJP
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case Latin1:
		return "latin-1"
	case ShiftJIS:
		return "shift-jis"
	case EUCJP:
		return "euc-jp"
	}
	return "unknown"
}

// ParseEncoding converts a flag or manifest value to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "latin-1", "latin1", "iso-8859-1":
		return Latin1, nil
	case "shift-jis", "shiftjis", "sjis":
		return ShiftJIS, nil
	case "euc-jp", "eucjp":
		return EUCJP, nil
	}
	return UTF8, fmt.Errorf("invalid encoding: %q (expected: utf-8|latin-1|shift-jis|euc-jp)", s)
}

func (e Encoding) codec() encoding.Encoding {
	switch e {
	case Latin1:
		return charmap.ISO8859_1
	case ShiftJIS:
		return japanese.ShiftJIS
	case EUCJP:
		return japanese.EUCJP
	}
	return nil
}

// Decode converts raw bytes in encoding e to UTF-8.
func (e Encoding) Decode(raw []byte) ([]byte, error) {
	codec := e.codec()
	if codec == nil {
		return raw, nil
	}
	out, err := codec.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", e, err)
	}
	return out, nil
}
