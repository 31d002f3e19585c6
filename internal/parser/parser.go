package parser

import (
	"fmt"
	"os"
	"strings"

	"pgsql-check/internal/model"

	"github.com/pingcap/tidb/parser"
	"github.com/pingcap/tidb/parser/ast"
	_ "github.com/pingcap/tidb/parser/test_driver"
)

// SQLParser wraps the TiDB parser
type SQLParser struct {
	p *parser.Parser
}

func NewSQLParser() *SQLParser {
	return &SQLParser{
		p: parser.New(),
	}
}

// Parse converts a SQL string into an AST
func (sp *SQLParser) Parse(sql string) (ast.StmtNode, error) {
	stmtNodes, _, err := sp.p.Parse(sql, "", "")
	if err != nil {
		return nil, err
	}
	if len(stmtNodes) == 0 {
		return nil, fmt.Errorf("no valid SQL found")
	}
	// Only the first statement is checked
	return stmtNodes[0], nil
}

// LoadSchema reads a SQL file and populates the SchemaCtx
func (sp *SQLParser) LoadSchema(path string) (*model.SchemaCtx, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return sp.ParseSchema(string(content))
}

// ParseSchema builds a SchemaCtx from the CREATE TABLE statements in ddl.
// Table and column names are folded to lower case.
func (sp *SQLParser) ParseSchema(ddl string) (*model.SchemaCtx, error) {
	schema := &model.SchemaCtx{
		Tables: make(map[string]*model.Table),
	}

	stmts, _, err := sp.p.Parse(ddl, "", "")
	if err != nil {
		return nil, fmt.Errorf("schema parse error: %w", err)
	}

	for _, stmt := range stmts {
		if createTable, ok := stmt.(*ast.CreateTableStmt); ok {
			table := parseCreateTable(createTable)
			schema.Tables[strings.ToLower(table.Name)] = table
		}
	}

	return schema, nil
}

func parseCreateTable(node *ast.CreateTableStmt) *model.Table {
	t := &model.Table{
		Name:    node.Table.Name.O,
		Columns: make(map[string]*model.Column),
	}

	for _, col := range node.Cols {
		t.Columns[col.Name.Name.L] = &model.Column{
			Name: col.Name.Name.O,
			Type: col.Tp.String(),
		}
	}

	return t
}
