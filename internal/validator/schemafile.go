package validator

import (
	"context"
	"fmt"
	"log/slog"

	"pgsql-check/internal/model"
	"pgsql-check/internal/parser"
)

// SchemaFile validates statements offline against CREATE TABLE statements
// read from a DDL file. Statements are parsed with the TiDB (MySQL-compatible)
// grammar, so PostgreSQL-only syntax is reported as a bad statement.
type SchemaFile struct {
	schema *model.SchemaCtx
	parser *parser.SQLParser
	logger *slog.Logger
}

var _ model.Validator = (*SchemaFile)(nil)

// NewSchemaFile loads the DDL at path.
func NewSchemaFile(path string, logger *slog.Logger) (*SchemaFile, error) {
	p := parser.NewSQLParser()
	schema, err := p.LoadSchema(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return NewSchemaValidator(schema, p, logger), nil
}

func NewSchemaValidator(schema *model.SchemaCtx, p *parser.SQLParser, logger *slog.Logger) *SchemaFile {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("schema loaded", slog.Int("tables", len(schema.Tables)))
	return &SchemaFile{schema: schema, parser: p, logger: logger}
}

// Validate never returns an error; there is no connection to lose.
func (s *SchemaFile) Validate(_ context.Context, query string) (model.Outcome, error) {
	stmt, err := s.parser.Parse(query)
	if err != nil {
		return model.BadStatement(err.Error()), nil
	}

	refs := parser.ExtractReferences(stmt)
	var tables []*model.Table
	for _, name := range refs.Tables {
		t, ok := s.schema.Table(name)
		if !ok {
			return model.UndefinedTable(name), nil
		}
		tables = append(tables, t)
	}

	for _, col := range refs.Columns {
		if !s.columnExists(col, refs, tables) {
			return model.UndefinedColumn(col.Name), nil
		}
	}
	return model.OK(), nil
}

func (s *SchemaFile) columnExists(col parser.ColumnRef, refs parser.References, tables []*model.Table) bool {
	if col.Table != "" {
		name := col.Table
		if aliased, ok := refs.Aliases[name]; ok {
			name = aliased
		}
		if t, ok := s.schema.Table(name); ok {
			return t.HasColumn(col.Name)
		}
	}
	if _, ok := refs.FieldAliases[col.Name]; ok {
		return true
	}
	if len(tables) == 0 {
		return true
	}
	for _, t := range tables {
		if t.HasColumn(col.Name) {
			return true
		}
	}
	return false
}
