package reporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgsql-check/internal/model"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestConsoleReporter_Report(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	diags := []model.Diagnostic{
		{
			Rule:     model.RuleUndefinedTable,
			Level:    model.RiskLevelWarning,
			Message:  "Table 'bad_table' does not exist.",
			Location: model.Location{FilePath: "repo/users.go", Line: 7, Column: 10},
			AdditionalLocations: []model.Location{
				{FilePath: "repo/users.go", Line: 8, Column: 7},
			},
			SQL: "UPDATE bad_table\n\tSET id = 1",
		},
		{
			Rule:     model.RuleMissingStatement,
			Level:    model.RiskLevelWarning,
			Message:  "Provide a SQL statement via the constructor or the text property.",
			Location: model.Location{FilePath: "repo/users.go", Line: 12, Column: 9},
		},
	}

	require.NoError(t, NewConsoleReporter(&buf).Report(diags))
	out := buf.String()

	assert.Contains(t, out, "repo/users.go:7:10: [WARNING] PSCA1001: Table 'bad_table' does not exist.\n")
	assert.Contains(t, out, "\tSQL: UPDATE bad_table SET id = 1\n")
	assert.Contains(t, out, "\tUsed at: repo/users.go:8:7\n")
	assert.Contains(t, out, "repo/users.go:12:9: [WARNING] PSCA1100: Provide a SQL statement")
	assert.Equal(t, 1, strings.Count(out, "SQL:"))
	assert.Contains(t, out, "found 2 issues.")
}

func TestConsoleReporter_Report_Empty(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf).Report(nil))
	assert.Equal(t, "✔ No SQL issues found.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 80))
	assert.Equal(t, "ééé...", truncate("éééé", 3))
}
