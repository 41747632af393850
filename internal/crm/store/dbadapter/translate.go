package dbadapter

import (
	"strings"
	"unicode"
)

type statementInfo struct {
	insert    bool // first keyword is INSERT
	returning bool // statement carries a RETURNING clause after rewrite
}

// Translate rewrites a canonical statement for d without an open adapter.
func Translate(d Dialect, statement string) string {
	impl, err := dialectFor(d)
	if err != nil {
		return statement
	}
	return translate(impl, statement)
}

func translate(d dialect, statement string) string {
	q, _ := rewrite(d, statement)
	return q
}

// rewrite numbers `?` markers for the dialect and, where the engine cannot
// report generated keys otherwise, appends RETURNING id to INSERTs. Markers
// inside string literals, quoted identifiers and comments are left alone.
func rewrite(d dialect, statement string) (string, statementInfo) {
	var (
		b         strings.Builder
		info      statementInfo
		n         int
		firstWord = true
	)
	b.Grow(len(statement) + 16)

	for i := 0; i < len(statement); {
		c := statement[i]
		switch {
		case c == '\'' || c == '"':
			end := scanQuoted(statement, i, c)
			b.WriteString(statement[i:end])
			i = end

		case c == '-' && i+1 < len(statement) && statement[i+1] == '-':
			end := strings.IndexByte(statement[i:], '\n')
			if end < 0 {
				end = len(statement)
			} else {
				end += i
			}
			b.WriteString(statement[i:end])
			i = end

		case c == '/' && i+1 < len(statement) && statement[i+1] == '*':
			end := strings.Index(statement[i+2:], "*/")
			if end < 0 {
				end = len(statement)
			} else {
				end += i + 4
			}
			b.WriteString(statement[i:end])
			i = end

		case c == '?':
			n++
			b.WriteString(d.placeholder(n))
			i++

		case isWordByte(c):
			end := i
			for end < len(statement) && isWordByte(statement[end]) {
				end++
			}
			word := statement[i:end]
			if firstWord {
				info.insert = strings.EqualFold(word, "INSERT")
				firstWord = false
			}
			if strings.EqualFold(word, "RETURNING") {
				info.returning = true
			}
			b.WriteString(word)
			i = end

		default:
			b.WriteByte(c)
			i++
		}
	}

	out := b.String()
	if info.insert && !info.returning && d.returningID() {
		out = strings.TrimRightFunc(out, func(r rune) bool {
			return r == ';' || unicode.IsSpace(r)
		}) + " RETURNING id"
		info.returning = true
	}
	return out, info
}

// scanQuoted returns the index just past the literal opened at start.
// A doubled quote character is an escaped quote.
func scanQuoted(s string, start int, quote byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != quote {
			continue
		}
		if i+1 < len(s) && s[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
