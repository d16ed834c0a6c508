package ident

import (
	"regexp"
	"strings"
	"unicode"
)

// Quote characters understood by QuoteWith.
const (
	DoubleQuote = '"'
	Backtick    = '`'
)

var reName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Valid reports whether name is a plain, unquoted column identifier that can
// also be used as a named parameter.
func Valid(name string) bool {
	return reName.MatchString(name)
}

// SplitQualified splits a potentially schema-qualified identifier into its parts.
// Both double quotes and backticks are recognised as quoting characters.
func SplitQualified(ident string) []string {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return nil
	}
	var parts []string
	var buf strings.Builder
	var quote rune
	runes := []rune(ident)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0 && r == quote:
			if i+1 < len(runes) && runes[i+1] == quote {
				buf.WriteRune(r)
				i++
				continue
			}
			quote = 0
		case quote == 0 && (r == DoubleQuote || r == Backtick):
			quote = r
		case r == '.' && quote == 0:
			parts = append(parts, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	parts = append(parts, strings.TrimSpace(buf.String()))
	return parts
}

// StripAlias removes trailing alias tokens from an identifier while preserving quotes.
func StripAlias(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ",")
	runes := []rune(s)
	var quote rune
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == DoubleQuote || r == Backtick):
			quote = r
		case quote == 0 && unicode.IsSpace(r):
			return strings.TrimSpace(string(runes[:i]))
		}
	}
	return s
}

// QuoteQualified renders qualified identifier parts as a SQL identifier using q.
func QuoteQualified(parts []string, q rune) string {
	if len(parts) == 0 {
		return ""
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = QuoteWith(p, q)
	}
	return strings.Join(quoted, ".")
}

// QuoteWith safely quotes a single identifier part with q, doubling any
// embedded quote character.
func QuoteWith(part string, q rune) string {
	s := string(q)
	return s + strings.ReplaceAll(part, s, s+s) + s
}
