package validator

import (
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"

	"pgsql-check/internal/model"
)

// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeUndefinedTable  = "42P01" // undefined_table
	codeUndefinedColumn = "42703" // undefined_column
)

var (
	word         = regexp.MustCompile(`\w+`)
	quotedInText = regexp.MustCompile(`"([^"]+)"`)
)

// Classify maps a server error for query onto a validation outcome.
func Classify(query string, err *pgconn.PgError) model.Outcome {
	switch err.Code {
	case codeUndefinedTable:
		return model.UndefinedTable(offendingName(query, err))
	case codeUndefinedColumn:
		return model.UndefinedColumn(offendingName(query, err))
	default:
		return model.BadStatement(err.Error())
	}
}

// offendingName reads the identifier the server pointed at. Position is a
// 1-based character offset into the submitted statement; the name is the
// first run of word characters from there. When the position yields nothing
// the first quoted name in the message is used.
func offendingName(query string, err *pgconn.PgError) string {
	if name := IdentifierAt(query, int(err.Position)); name != "" {
		return name
	}
	if m := quotedInText.FindStringSubmatch(err.Message); m != nil {
		return m[1]
	}
	return ""
}

// IdentifierAt returns the first maximal run of word characters at or after
// the 1-based character position pos of s.
func IdentifierAt(s string, pos int) string {
	runes := []rune(s)
	if pos < 1 || pos > len(runes) {
		return ""
	}
	return word.FindString(string(runes[pos-1:]))
}
