package resolver

import (
	"cmp"
	"errors"
	"go/ast"
	"go/token"
	"slices"
)

// ErrNoBinding is returned when a name has no declaration in the enclosing scopes.
var ErrNoBinding = errors.New("no declaration in enclosing scopes")

// WriteKind tells a declaration apart from a later assignment.
type WriteKind int

const (
	Declaration WriteKind = iota
	Reassignment
)

// Write is one place where a variable receives a value.
type Write struct {
	Kind WriteKind
	// At is the position of the written name, used for distance.
	At token.Pos
	// Value is the right-hand side, nil for declarations without an initializer.
	Value ast.Expr
}

// Binding is a local variable with its declaration and every reassignment, in source order.
type Binding struct {
	Name          string
	Decl          Write
	Reassignments []Write
}

// SelectionPolicy picks the write whose value a reference observes.
type SelectionPolicy interface {
	Select(fset *token.FileSet, ref token.Pos, b *Binding) Write
}

// NearestLine selects the reassignment closest in line distance to the
// reference, falling back to the declaration unless the reassignment is
// strictly closer. Reachability is not considered.
type NearestLine struct{}

func (NearestLine) Select(fset *token.FileSet, ref token.Pos, b *Binding) Write {
	if len(b.Reassignments) == 0 {
		return b.Decl
	}
	refLine := fset.Position(ref).Line
	distance := func(w Write) int {
		d := refLine - fset.Position(w.At).Line
		if d < 0 {
			return -d
		}
		return d
	}

	best := b.Reassignments[0]
	for _, w := range b.Reassignments[1:] {
		if distance(w) < distance(best) {
			best = w
		}
	}
	if distance(best) < distance(b.Decl) {
		return best
	}
	return b.Decl
}

// Tracer resolves a variable reference to the write it most likely observes.
type Tracer struct {
	fset   *token.FileSet
	policy SelectionPolicy
}

func NewTracer(fset *token.FileSet, policy SelectionPolicy) *Tracer {
	if policy == nil {
		policy = NearestLine{}
	}
	return &Tracer{fset: fset, policy: policy}
}

// Trace finds the binding of name along ancestors and selects a write for ref.
func (t *Tracer) Trace(name string, ref token.Pos, ancestors []ast.Node) (Write, error) {
	b, ok := FindBinding(name, ancestors)
	if !ok {
		return Write{}, ErrNoBinding
	}
	return t.policy.Select(t.fset, ref, b), nil
}

// FindBinding collects the declaration and reassignments of name over the
// statements directly owned by each ancestor. The innermost declaration wins;
// shadowing declarations further out are ignored.
func FindBinding(name string, ancestors []ast.Node) (*Binding, bool) {
	b := &Binding{Name: name}
	declScope := -1
	for depth, scope := range ancestors {
		for _, stmt := range scopeStatements(scope) {
			for _, w := range writesTo(name, stmt) {
				switch {
				case w.Kind == Reassignment:
					b.Reassignments = append(b.Reassignments, w)
				case declScope < 0:
					b.Decl = w
					declScope = depth
				case declScope == depth:
					w.Kind = Reassignment
					b.Reassignments = append(b.Reassignments, w)
				}
			}
		}
	}
	if declScope < 0 {
		return nil, false
	}
	slices.SortFunc(b.Reassignments, func(x, y Write) int { return cmp.Compare(x.At, y.At) })
	return b, true
}

// scopeStatements returns the statements and declarations owned by a node.
func scopeStatements(n ast.Node) []ast.Node {
	var out []ast.Node
	add := func(stmts ...ast.Stmt) {
		for _, s := range stmts {
			if s != nil {
				out = append(out, s)
			}
		}
	}
	switch s := n.(type) {
	case *ast.File:
		for _, d := range s.Decls {
			if gd, ok := d.(*ast.GenDecl); ok {
				out = append(out, gd)
			}
		}
	case *ast.BlockStmt:
		add(s.List...)
	case *ast.CaseClause:
		add(s.Body...)
	case *ast.CommClause:
		add(s.Body...)
	case *ast.IfStmt:
		add(s.Init)
	case *ast.ForStmt:
		add(s.Init, s.Post)
	case *ast.SwitchStmt:
		add(s.Init)
	case *ast.TypeSwitchStmt:
		add(s.Init)
	}
	return out
}

// writesTo lists the writes to name performed directly by one statement.
// A := repeating a name already declared in the same scope is demoted to a
// reassignment by FindBinding.
func writesTo(name string, n ast.Node) []Write {
	switch s := n.(type) {
	case *ast.DeclStmt:
		return writesTo(name, s.Decl)
	case *ast.GenDecl:
		if s.Tok != token.VAR && s.Tok != token.CONST {
			return nil
		}
		var out []Write
		for _, spec := range s.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, id := range vs.Names {
				if id.Name != name {
					continue
				}
				w := Write{Kind: Declaration, At: id.Pos()}
				if i < len(vs.Values) {
					w.Value = vs.Values[i]
				}
				out = append(out, w)
			}
		}
		return out
	case *ast.AssignStmt:
		kind := Reassignment
		switch s.Tok {
		case token.DEFINE:
			kind = Declaration
		case token.ASSIGN:
		default:
			return nil
		}
		var out []Write
		for i, lhs := range s.Lhs {
			id, ok := lhs.(*ast.Ident)
			if !ok || id.Name != name {
				continue
			}
			w := Write{Kind: kind, At: id.Pos()}
			if len(s.Lhs) == len(s.Rhs) {
				w.Value = s.Rhs[i]
			}
			out = append(out, w)
		}
		return out
	}
	return nil
}
