package parser

import (
	"strings"

	"github.com/trungle-dev/linesql/internal/strutil"
)

// formatQuery normalises a statement for token splitting: outside quotes,
// whitespace runs collapse to one space and each of ( , ) ; = gets
// surrounded by single spaces (no trailing space after the semicolon).
// Two-character comparison operators broken apart by that pass are
// rejoined.
func formatQuery(query string) string {
	const charsToSeparate = "(,);="
	var buf strings.Builder
	var quoteChar byte
	escaped, quoted, whitespaceFound := false, false, false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\\' {
			escaped = !escaped
			buf.WriteByte(c)
		} else {
			if c == ' ' && whitespaceFound && !quoted {
				continue
			}
			if (c == '"' || c == '\'') && !escaped {
				if quoteChar == 0 || quoteChar == c {
					quoted = !quoted
					if quoteChar == 0 {
						quoteChar = c
					} else {
						quoteChar = 0
					}
				}
			}
			escaped = false
			if !quoted && strings.IndexByte(charsToSeparate, c) >= 0 {
				if !whitespaceFound {
					buf.WriteByte(' ')
				}
				buf.WriteByte(c)
				if c != ';' {
					buf.WriteByte(' ')
				}
			} else {
				buf.WriteByte(c)
			}
		}
		s := buf.String()
		whitespaceFound = len(s) > 0 && s[len(s)-1] == ' '
	}
	out := buf.String()
	out = strings.ReplaceAll(out, "< =", "<=")
	out = strings.ReplaceAll(out, "> =", ">=")
	out = strings.ReplaceAll(out, "! =", "!=")
	return out
}

// isBalanced checks parenthesis nesting (ignoring double-quoted content)
// and quote parity. Splitting on a quote character yields one segment more
// than there are quotes, so an even number of segments means an unbalanced
// quote count.
func isBalanced(query string) bool {
	depth := 0
	ignore, escaped := false, false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '"' && !escaped {
			ignore = !ignore
		}
		if c == '\\' {
			escaped = !escaped
		} else {
			escaped = false
		}
		if ignore {
			continue
		}
		if c == '(' {
			depth++
		} else if c == ')' {
			if depth == 0 {
				return false
			}
			depth--
		}
	}
	return depth == 0 &&
		len(strutil.Split(query, '"', true))%2 == 1 &&
		len(strutil.Split(query, '\'', true))%2 == 1
}
