package extractor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/ast/inspector"
)

// Options describe which constructions create a command.
type Options struct {
	// TypeName is the command type, compared case-insensitively. NewTypeName
	// calls and TypeName composite literals are both construction sites.
	TypeName string
	// TextField is the field that holds the command's SQL.
	TextField string
}

func DefaultOptions() Options {
	return Options{TypeName: "Command", TextField: "Text"}
}

// Site is a program point where a command object is instantiated.
type Site struct {
	// Node is the *ast.CallExpr or *ast.CompositeLit creating the command.
	Node ast.Expr
	// Args holds the expressions that supply SQL at construction, in order.
	Args []ast.Expr
	// Receiver is the variable the command is bound to, empty when it is not bound.
	Receiver string
	// Ancestors lists the enclosing nodes, innermost first, ending with the *ast.File.
	Ancestors []ast.Node
}

func (s Site) Pos() token.Pos { return s.Node.Pos() }

// Unit is one parsed compilation unit and the construction sites found in it.
type Unit struct {
	Fset  *token.FileSet
	Files []*ast.File
	Sites []Site
}

// FindSites returns every construction site visible to the inspector, in source order.
func FindSites(insp *inspector.Inspector, opts Options) []Site {
	var sites []Site
	filter := []ast.Node{(*ast.CallExpr)(nil), (*ast.CompositeLit)(nil)}
	insp.WithStack(filter, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}
		var args []ast.Expr
		switch node := n.(type) {
		case *ast.CallExpr:
			if !strings.EqualFold(typeName(node.Fun), "New"+opts.TypeName) {
				return true
			}
			args = node.Args
		case *ast.CompositeLit:
			if !strings.EqualFold(typeName(node.Type), opts.TypeName) {
				return true
			}
			args = textElements(node, opts.TextField)
		}

		ancestors := make([]ast.Node, 0, len(stack)-1)
		for i := len(stack) - 2; i >= 0; i-- {
			ancestors = append(ancestors, stack[i])
		}
		sites = append(sites, Site{
			Node:      n.(ast.Expr),
			Args:      args,
			Receiver:  receiverOf(n, ancestors),
			Ancestors: ancestors,
		})
		return true
	})
	return sites
}

func typeName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return typeName(t.X)
	}
	return ""
}

// textElements picks the element of a composite literal that carries the SQL.
func textElements(lit *ast.CompositeLit, field string) []ast.Expr {
	for i, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			if i == 0 {
				return []ast.Expr{elt}
			}
			continue
		}
		if key, ok := kv.Key.(*ast.Ident); ok && strings.EqualFold(key.Name, field) {
			return []ast.Expr{kv.Value}
		}
	}
	return nil
}

// receiverOf finds the variable a construction is bound to, looking through & and parentheses.
func receiverOf(n ast.Node, ancestors []ast.Node) string {
	child := n
	for _, parent := range ancestors {
		switch p := parent.(type) {
		case *ast.UnaryExpr, *ast.ParenExpr:
			child = p
			continue
		case *ast.AssignStmt:
			if len(p.Lhs) != len(p.Rhs) {
				return ""
			}
			for i, rhs := range p.Rhs {
				if rhs == child {
					if id, ok := p.Lhs[i].(*ast.Ident); ok && id.Name != "_" {
						return id.Name
					}
				}
			}
		case *ast.ValueSpec:
			for i, v := range p.Values {
				if v == child && i < len(p.Names) {
					return p.Names[i].Name
				}
			}
		}
		return ""
	}
	return ""
}

// GoExtractor parses Go source files
type GoExtractor struct {
	opts Options
}

func NewGoExtractor(opts Options) *GoExtractor {
	return &GoExtractor{opts: opts}
}

func (e *GoExtractor) Extract(filePath string, content []byte) (*Unit, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filePath, content, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	files := []*ast.File{f}
	return &Unit{
		Fset:  fset,
		Files: files,
		Sites: FindSites(inspector.New(files), e.opts),
	}, nil
}

// Extractor is implemented by each supported source language.
type Extractor interface {
	Extract(filePath string, content []byte) (*Unit, error)
}

// Manager selects the appropriate extractor based on file extension
type Manager struct {
	extractors map[string]Extractor
}

func NewManager() *Manager {
	return &Manager{
		extractors: make(map[string]Extractor),
	}
}

func (m *Manager) Register(ext string, extr Extractor) {
	m.extractors[strings.ToLower(ext)] = extr
}

// Extensions lists the registered extensions.
func (m *Manager) Extensions() []string {
	exts := make([]string, 0, len(m.extractors))
	for ext := range m.extractors {
		exts = append(exts, ext)
	}
	return exts
}

func (m *Manager) Extract(filePath string) (*Unit, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	extr, ok := m.extractors[ext]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for %q files", ext)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return extr.Extract(filePath, content)
}
