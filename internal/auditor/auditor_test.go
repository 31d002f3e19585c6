package auditor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgsql-check/internal/extractor"
	"pgsql-check/internal/model"
	"pgsql-check/internal/resolver"
	"pgsql-check/internal/testutil"
)

// fakeValidator rejects statements mentioning known-bad names and records calls.
type fakeValidator struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeValidator) Validate(_ context.Context, sql string) (model.Outcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sql)
	f.mu.Unlock()

	switch {
	case f.err != nil:
		return model.Outcome{}, f.err
	case strings.Contains(sql, "non_existent_table"):
		return model.UndefinedTable("non_existent_table"), nil
	case strings.Contains(sql, "bad_table"):
		return model.UndefinedTable("bad_table"), nil
	case strings.Contains(sql, "nickname"):
		return model.UndefinedColumn("nickname"), nil
	case strings.HasPrefix(sql, "invalid"):
		return model.BadStatement(`ERROR: syntax error at or near "invalid" (SQLSTATE 42601)`), nil
	}
	return model.OK(), nil
}

func audit(t *testing.T, v model.Validator, src string) ([]model.Diagnostic, error) {
	t.Helper()
	unit, err := extractor.NewGoExtractor(extractor.DefaultOptions()).Extract("test.go", []byte(src))
	require.NoError(t, err)
	a := NewAuditor(resolver.New("Text", nil), v, testutil.NewTestLogger(t))
	return a.AuditUnit(context.Background(), unit)
}

func TestAuditor_Audit(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		rule    model.RuleID
		message string
		line    int
		column  int
	}{
		{
			name: "undefined table in constructor",
			src: `package demo

func f() {
	cmd := NewCommand("SELECT * FROM non_existent_table")
	_ = cmd
}
`,
			rule:    model.RuleUndefinedTable,
			message: "Table 'non_existent_table' does not exist.",
			line:    4,
			column:  9,
		},
		{
			name: "undefined table in declaration",
			src: `package demo

func f() {
	query := "UPDATE bad_table SET id = 1 WHERE name = 'test';"
	cmd := NewCommand(query)
	_ = cmd
}
`,
			rule:    model.RuleUndefinedTable,
			message: "Table 'bad_table' does not exist.",
			line:    4,
			column:  11,
		},
		{
			name: "undefined column in property assignment",
			src: `package demo

func f() {
	cmd := &Command{}
	cmd.Text = "SELECT nickname FROM users"
}
`,
			rule:    model.RuleUndefinedColumn,
			message: "Column 'nickname' does not exist.",
			line:    5,
			column:  2,
		},
		{
			name: "bad statement",
			src: `package demo

func f() {
	_ = NewCommand("invalid query syntax")
}
`,
			rule:    model.RuleBadStatement,
			message: `ERROR: syntax error at or near "invalid" (SQLSTATE 42601)`,
			line:    4,
			column:  6,
		},
		{
			name: "missing statement",
			src: `package demo

func f() {
	cmd := NewCommand()
	_ = cmd
}
`,
			rule:    model.RuleMissingStatement,
			message: "Provide a SQL statement via the constructor or the text property.",
			line:    4,
			column:  9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags, err := audit(t, &fakeValidator{}, tt.src)
			require.NoError(t, err)
			require.Len(t, diags, 1)

			d := diags[0]
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, model.RiskLevelWarning, d.Level)
			assert.Equal(t, tt.message, d.Message)
			assert.Equal(t, tt.line, d.Location.Line)
			assert.Equal(t, tt.column, d.Location.Column)
			assert.Equal(t, "test.go", d.Location.FilePath)
		})
	}
}

func TestAuditor_Audit_NearestWrite(t *testing.T) {
	src := `package demo

func f() {
	query := "SELECT * FROM users;"
	a := NewCommand(query)

	query = "UPDATE bad_table SET id = 1 WHERE name = 'test';"
	b := NewCommand(query)
	_, _ = a, b
}
`
	diags, err := audit(t, &fakeValidator{}, src)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, 7, diags[0].Location.Line)
	assert.Equal(t, 10, diags[0].Location.Column)
	require.Len(t, diags[0].AdditionalLocations, 1)
	assert.Equal(t, 8, diags[0].AdditionalLocations[0].Line)
}

func TestAuditor_Audit_MissingStatementSkipsValidation(t *testing.T) {
	src := `package demo

func f() {
	cmd := NewCommand()
	_ = cmd
}
`
	v := &fakeValidator{}
	diags, err := audit(t, v, src)
	require.NoError(t, err)
	assert.Len(t, diags, 1)
	assert.Empty(t, v.calls)
}

func TestAuditor_Audit_SkipsUnresolvable(t *testing.T) {
	src := `package demo

func f(q string) {
	_ = NewCommand(q)
	_ = NewCommand(build())
	_ = NewCommand("SELECT * FROM t WHERE id = @id")
}
`
	v := &fakeValidator{}
	diags, err := audit(t, v, src)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, []string{"SELECT * FROM t WHERE id = NULL"}, v.calls)
}

func TestAuditor_Audit_FatalPropagates(t *testing.T) {
	src := `package demo

func f() {
	_ = NewCommand("SELECT 1")
	_ = NewCommand("SELECT 2")
}
`
	connErr := errors.New("connection refused")
	v := &fakeValidator{err: connErr}
	diags, err := audit(t, v, src)
	assert.ErrorIs(t, err, connErr)
	assert.Nil(t, diags)
	assert.Len(t, v.calls, 1)
}

func TestAuditor_Audit_Deterministic(t *testing.T) {
	src := `package demo

func f() {
	q := "SELECT * FROM non_existent_table"
	_ = NewCommand(q)
	_ = NewCommand()
}
`
	first, err := audit(t, &fakeValidator{}, src)
	require.NoError(t, err)
	second, err := audit(t, &fakeValidator{}, src)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}
