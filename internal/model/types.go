package model

import (
	"fmt"
	"go/token"
	"strings"
)

// Location represents the physical location of a code segment
type Location struct {
	FilePath string
	Line     int
	Column   int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.Line, l.Column)
}

// LocationOf converts a token position; go/token lines and columns are already 1-based.
func LocationOf(fset *token.FileSet, pos token.Pos) Location {
	p := fset.Position(pos)
	return Location{FilePath: p.Filename, Line: p.Line, Column: p.Column}
}

// ResolvedStatement is the SQL text that will be bound to a command at a construction site.
type ResolvedStatement struct {
	SQL string
	// Pos is the expression that produced SQL, or the construction site when NotFound.
	Pos      token.Pos
	NotFound bool
}

// Found builds a resolved statement.
func Found(sql string, pos token.Pos) ResolvedStatement {
	return ResolvedStatement{SQL: sql, Pos: pos}
}

// NotFound is returned when a command never receives any SQL.
func NotFound(site token.Pos) ResolvedStatement {
	return ResolvedStatement{Pos: site, NotFound: true}
}

// OutcomeKind classifies the result of validating a statement against a schema.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeUndefinedTable
	OutcomeUndefinedColumn
	OutcomeBadStatement
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeUndefinedTable:
		return "undefined_table"
	case OutcomeUndefinedColumn:
		return "undefined_column"
	case OutcomeBadStatement:
		return "bad_statement"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is what a Validator concluded about one statement.
// Name is set for undefined tables and columns, Message for other SQL errors.
type Outcome struct {
	Kind    OutcomeKind
	Name    string
	Message string
}

func OK() Outcome                         { return Outcome{Kind: OutcomeOK} }
func UndefinedTable(name string) Outcome  { return Outcome{Kind: OutcomeUndefinedTable, Name: name} }
func UndefinedColumn(name string) Outcome { return Outcome{Kind: OutcomeUndefinedColumn, Name: name} }
func BadStatement(message string) Outcome { return Outcome{Kind: OutcomeBadStatement, Message: message} }

// RuleID identifies one of the fixed diagnostic rules
type RuleID string

const (
	RuleBadStatement     RuleID = "PSCA1000"
	RuleUndefinedTable   RuleID = "PSCA1001"
	RuleUndefinedColumn  RuleID = "PSCA1002"
	RuleMissingStatement RuleID = "PSCA1100"
)

// RiskLevel defines the severity of a finding
type RiskLevel string

const (
	RiskLevelWarning RiskLevel = "WARNING"
)

// Diagnostic is a single positioned finding
type Diagnostic struct {
	Rule                RuleID
	Level               RiskLevel
	Message             string
	Pos                 token.Pos
	Location            Location
	AdditionalLocations []Location
	SQL                 string

	// Site is the construction site when the SQL was found elsewhere, NoPos otherwise.
	Site token.Pos
}

// SchemaCtx represents a database schema loaded from DDL
type SchemaCtx struct {
	Tables map[string]*Table
}

type Table struct {
	Name    string
	Columns map[string]*Column
}

type Column struct {
	Name string
	Type string // Simplified type representation
}

// Table looks a table up by its folded (lower-case) name.
func (s *SchemaCtx) Table(name string) (*Table, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.Tables[strings.ToLower(name)]
	return t, ok
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Columns[strings.ToLower(name)]
	return ok
}
