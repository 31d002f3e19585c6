package parser

import (
	"github.com/pingcap/tidb/parser/ast"
)

// ColumnRef is a column mentioned by a statement, with its optional qualifier.
type ColumnRef struct {
	Table string
	Name  string
}

// References lists what a statement reads or writes. All names are lower case.
type References struct {
	// Tables in order of first appearance, excluding CTE names.
	Tables []string
	// Aliases maps table aliases to table names.
	Aliases map[string]string
	Columns []ColumnRef
	// FieldAliases are names introduced with SELECT ... AS name.
	FieldAliases map[string]struct{}
}

// ExtractReferences walks the whole statement, subqueries and joins included.
func ExtractReferences(node ast.StmtNode) References {
	c := &collector{
		refs: References{
			Aliases:      make(map[string]string),
			FieldAliases: make(map[string]struct{}),
		},
		ctes: make(map[string]struct{}),
		seen: make(map[string]struct{}),
	}
	node.Accept(c)

	tables := c.refs.Tables[:0]
	for _, t := range c.refs.Tables {
		if _, ok := c.ctes[t]; !ok {
			tables = append(tables, t)
		}
	}
	c.refs.Tables = tables
	return c.refs
}

// ExtractTableNames extracts all table names mentioned in a SQL statement.
func ExtractTableNames(node ast.StmtNode) []string {
	return ExtractReferences(node).Tables
}

type collector struct {
	refs References
	ctes map[string]struct{}
	seen map[string]struct{}
}

func (c *collector) Enter(n ast.Node) (ast.Node, bool) {
	switch v := n.(type) {
	case *ast.CommonTableExpression:
		c.ctes[v.Name.L] = struct{}{}
	case *ast.TableSource:
		if tn, ok := v.Source.(*ast.TableName); ok && v.AsName.L != "" {
			c.refs.Aliases[v.AsName.L] = tn.Name.L
		}
	case *ast.TableName:
		if _, ok := c.seen[v.Name.L]; !ok {
			c.seen[v.Name.L] = struct{}{}
			c.refs.Tables = append(c.refs.Tables, v.Name.L)
		}
	case *ast.SelectField:
		if v.AsName.L != "" {
			c.refs.FieldAliases[v.AsName.L] = struct{}{}
		}
	case *ast.ColumnName:
		c.refs.Columns = append(c.refs.Columns, ColumnRef{Table: v.Table.L, Name: v.Name.L})
	}
	return n, false
}

func (c *collector) Leave(n ast.Node) (ast.Node, bool) {
	return n, true
}
