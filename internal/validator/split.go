package validator

import "strings"

// SplitStatements breaks a statement list on top-level semicolons. Semicolons
// inside quoted strings, quoted identifiers, dollar-quoted bodies and comments
// do not split. Whitespace-only pieces are dropped.
func SplitStatements(query string) []string {
	var (
		stmts []string
		start int
	)
	emit := func(end int) {
		if s := query[start:end]; strings.TrimSpace(s) != "" {
			stmts = append(stmts, s)
		}
	}

	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case c == '\'' || c == '"':
			i = skipQuoted(query, i, c)
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			if end := strings.IndexByte(query[i:], '\n'); end >= 0 {
				i += end
			} else {
				i = len(query)
			}
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			if end := strings.Index(query[i+2:], "*/"); end >= 0 {
				i += end + 3
			} else {
				i = len(query)
			}
		case c == '$':
			if tag, ok := dollarTag(query[i:]); ok {
				if end := strings.Index(query[i+len(tag):], tag); end >= 0 {
					i += len(tag) + end + len(tag) - 1
				} else {
					i = len(query)
				}
			}
		case c == ';':
			emit(i)
			start = i + 1
		}
	}
	if start < len(query) {
		emit(len(query))
	}
	return stmts
}

// skipQuoted returns the index of the quote closing the one at i. A doubled
// quote is an escaped quote.
func skipQuoted(s string, i int, q byte) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] != q {
			continue
		}
		if j+1 < len(s) && s[j+1] == q {
			j++
			continue
		}
		return j
	}
	return len(s)
}

// dollarTag reads a $tag$ or $$ opener at the start of s.
func dollarTag(s string) (string, bool) {
	for j := 1; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '$':
			return s[:j+1], true
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || j > 1 && c >= '0' && c <= '9':
		default:
			return "", false
		}
	}
	return "", false
}
