package driver

import "strings"

func isIdentStart(ch byte) bool {
	return ch == '_' || 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || '0' <= ch && ch <= '9'
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

func skipBlanks(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// splitWord splits s after its leading run of identifier characters.
func splitWord(s string) (word, rest string) {
	i := 0
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// parseIncludeLine recognises a Fortran INCLUDE line (any case) in a line
// with leading blanks removed. found reports that the line is an include
// line at all; ok that its file name is well formed.
//
//	include 'file.h'
//	INCLUDE "file.h" ! comment
func parseIncludeLine(trimmed string) (name string, ok, found bool) {
	const kw = "include"
	if len(trimmed) < len(kw) || !strings.EqualFold(trimmed[:len(kw)], kw) {
		return "", false, false
	}
	rest := strings.TrimLeft(trimmed[len(kw):], " \t")
	if rest == "" || rest[0] != '\'' && rest[0] != '"' {
		// "include = 1" and friends are ordinary statements
		return "", false, false
	}
	name, ok = parseQuoted(rest)
	return name, ok, true
}

// parseQuoted reads a file name delimited by '', "" or <> at the start of
// s. Only blanks or a '!' comment may follow it.
func parseQuoted(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	closer := s[0]
	switch closer {
	case '\'', '"':
	case '<':
		closer = '>'
	default:
		return "", false
	}
	end := strings.IndexByte(s[1:], closer)
	if end <= 0 {
		return "", false
	}
	name := s[1 : 1+end]
	if tail := strings.TrimSpace(s[2+end:]); tail != "" && tail[0] != '!' {
		return "", false
	}
	return name, true
}
