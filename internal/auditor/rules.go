package auditor

import (
	"fmt"
	"go/token"

	"pgsql-check/internal/model"
)

// Rule describes one of the fixed diagnostics.
type Rule struct {
	ID     model.RuleID
	Title  string
	Format string
}

var (
	BadStatement = Rule{
		ID:     model.RuleBadStatement,
		Title:  "Bad SQL statement.",
		Format: "%s",
	}
	UndefinedTable = Rule{
		ID:     model.RuleUndefinedTable,
		Title:  "Undefined table.",
		Format: "Table '%s' does not exist.",
	}
	UndefinedColumn = Rule{
		ID:     model.RuleUndefinedColumn,
		Title:  "Undefined column.",
		Format: "Column '%s' does not exist.",
	}
	MissingStatement = Rule{
		ID:     model.RuleMissingStatement,
		Title:  "Missing statement.",
		Format: "Provide a SQL statement via the constructor or the text property.",
	}
)

// Rules lists every rule the auditor can report.
var Rules = []Rule{BadStatement, UndefinedTable, UndefinedColumn, MissingStatement}

func (r Rule) diagnostic(pos token.Pos, sql string, args ...any) model.Diagnostic {
	msg := r.Format
	if len(args) > 0 {
		msg = fmt.Sprintf(r.Format, args...)
	}
	return model.Diagnostic{
		Rule:    r.ID,
		Level:   model.RiskLevelWarning,
		Message: msg,
		Pos:     pos,
		SQL:     sql,
	}
}

// Emit maps a validation outcome for stmt to its diagnostic. Ok outcomes
// produce none.
func Emit(outcome model.Outcome, stmt model.ResolvedStatement) (model.Diagnostic, bool) {
	switch outcome.Kind {
	case model.OutcomeUndefinedTable:
		return UndefinedTable.diagnostic(stmt.Pos, stmt.SQL, outcome.Name), true
	case model.OutcomeUndefinedColumn:
		return UndefinedColumn.diagnostic(stmt.Pos, stmt.SQL, outcome.Name), true
	case model.OutcomeBadStatement:
		return BadStatement.diagnostic(stmt.Pos, stmt.SQL, outcome.Message), true
	default:
		return model.Diagnostic{}, false
	}
}

// Missing is the diagnostic for a command that never receives SQL.
func Missing(stmt model.ResolvedStatement) model.Diagnostic {
	return MissingStatement.diagnostic(stmt.Pos, "")
}
