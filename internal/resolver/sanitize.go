package resolver

import (
	"regexp"
	"strings"
)

var (
	quoteStripper  = strings.NewReplacer(`"`, "", "`", "")
	namedParameter = regexp.MustCompile(`@\w+`)
)

// Sanitize turns a string literal token, as written in source, into raw SQL.
// The leading quote or raw-string marker is dropped and every remaining quote
// character is removed. Escape sequences are left as written.
func Sanitize(literal string) string {
	if literal == "" {
		return ""
	}
	return quoteStripper.Replace(literal[1:])
}

// NeutralizeParameters replaces @name placeholders with NULL so the statement
// can be prepared without bind values.
func NeutralizeParameters(sql string) string {
	return namedParameter.ReplaceAllString(sql, "NULL")
}
