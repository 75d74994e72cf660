// Package strutil holds the quote-aware string helpers shared by the
// parser, the row codec and the restriction evaluator.
package strutil

import (
	"strings"

	"github.com/trungle-dev/linesql/internal/sqlerr"
)

// Split splits s on delim. With ignoreQuotes set, delimiters inside a
// matching pair of double or single quotes do not split; a backslash
// toggles an escaped flag so escaped quotes are not treated as quote
// boundaries. The result always has at least one element, and a trailing
// delimiter yields a trailing empty string.
func Split(s string, delim byte, ignoreQuotes bool) []string {
	var ret []string
	var buf strings.Builder
	escaped, quoted := false, false
	var quoteChar byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ignoreQuotes {
			if c == '\\' {
				escaped = !escaped
			} else {
				if (c == '"' || c == '\'') && !escaped {
					if c == quoteChar || quoteChar == 0 {
						quoted = !quoted
						if quoted {
							quoteChar = c
						} else {
							quoteChar = 0
						}
					}
				}
				escaped = false
			}
		}
		if c == delim && (!quoted || (!escaped && (c == '\'' || c == '"'))) {
			ret = append(ret, buf.String())
			buf.Reset()
		} else {
			buf.WriteByte(c)
		}
	}
	ret = append(ret, buf.String())
	return ret
}

// ExtractQuoted strips one layer of matching quotes from s. The string is
// returned unchanged unless it starts and ends with the same quote
// character and contains no unescaped occurrence of it in between.
func ExtractQuoted(s string) string {
	if s == "" {
		return s
	}
	quoteChar := s[0]
	if (quoteChar != '"' && quoteChar != '\'') || s[len(s)-1] != quoteChar || len(s) < 2 {
		return s
	}
	escaped := false
	for i := 1; i < len(s)-1; i++ {
		if s[i] == '\\' {
			escaped = !escaped
			continue
		}
		if s[i] == quoteChar && !escaped {
			return s
		}
		escaped = false
	}
	return s[1 : len(s)-1]
}

// Unescape resolves backslash escapes in s. Only \', \" and \\ are
// recognised; anything else is a BadEscape error.
func Unescape(s string) (string, error) {
	var buf strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && !escaped {
			escaped = true
			continue
		}
		if escaped {
			switch c {
			case '\'', '"', '\\':
				buf.WriteByte(c)
			default:
				return "", sqlerr.New(sqlerr.BadEscape, "cannot escape character %c", c)
			}
			escaped = false
			continue
		}
		buf.WriteByte(c)
	}
	return buf.String(), nil
}

// EscapeRegex backslash-escapes every regex metacharacter in s.
func EscapeRegex(s string) string {
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '[', '\\', '^', '$', '.', '|', '?', '*', '+', '(', ')', '{', '}':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
		}
	}
	return buf.String()
}

// Quote wraps s in double quotes, backslash-escaping embedded quotes and
// backslashes. This is the on-disk token form for row and schema fields.
func Quote(s string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(c)
	}
	buf.WriteByte('"')
	return buf.String()
}

// SplitQuoted tokenises a line of space-separated fields where a field
// starting with a double quote extends to the next unescaped double quote
// (with \" and \\ resolved). Unquoted fields end at the next whitespace.
func SplitQuoted(line string) []string {
	var fields []string
	i := 0
	for {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			return fields
		}
		var buf strings.Builder
		if line[i] == '"' {
			i++
			for i < len(line) {
				c := line[i]
				if c == '\\' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\') {
					buf.WriteByte(line[i+1])
					i += 2
					continue
				}
				if c == '"' {
					i++
					break
				}
				buf.WriteByte(c)
				i++
			}
		} else {
			for i < len(line) && line[i] != ' ' && line[i] != '\t' {
				buf.WriteByte(line[i])
				i++
			}
		}
		fields = append(fields, buf.String())
	}
}
