// Package resolver determines, without running the program, which SQL text
// a command receives at its construction site.
//
// Resolution is line-distance based: a variable reference observes whichever
// of its writes is textually nearest. There is no control-flow or
// reachability analysis, so a reassignment after the construction site can be
// selected when it is closer than the declaration.
package resolver

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"pgsql-check/internal/extractor"
	"pgsql-check/internal/model"
)

// ErrUnresolvable means the SQL depends on something other than string literals
// reachable through local bindings, such as a parameter or a function call.
var ErrUnresolvable = errors.New("statement cannot be determined statically")

// Shape is the closed set of forms a construction site can take.
type Shape interface {
	isShape()
}

// LiteralArg: the command is constructed with a string literal.
type LiteralArg struct{ Expr ast.Expr }

// VariableArg: the command is constructed with a local variable.
type VariableArg struct{ Ident *ast.Ident }

// OpaqueArg: the constructor argument is neither a literal nor an identifier.
type OpaqueArg struct{ Expr ast.Expr }

// PropertyAssignment: the command is constructed without SQL and its text
// field is assigned afterwards.
type PropertyAssignment struct {
	Assign *ast.AssignStmt
	Value  ast.Expr
}

// NoAssignment: the command never receives SQL.
type NoAssignment struct{}

func (LiteralArg) isShape()         {}
func (VariableArg) isShape()        {}
func (OpaqueArg) isShape()          {}
func (PropertyAssignment) isShape() {}
func (NoAssignment) isShape()       {}

// Resolver turns construction sites into resolved statements.
type Resolver struct {
	textField string
	policy    SelectionPolicy
}

// New returns a resolver looking for assignments to textField on commands
// built without SQL. A nil policy means NearestLine.
func New(textField string, policy SelectionPolicy) *Resolver {
	if policy == nil {
		policy = NearestLine{}
	}
	return &Resolver{textField: textField, policy: policy}
}

// Classify determines the shape of a site.
func (r *Resolver) Classify(fset *token.FileSet, site extractor.Site) Shape {
	if len(site.Args) > 0 {
		arg := ast.Unparen(site.Args[0])
		if _, ok := literalText(arg); ok {
			return LiteralArg{Expr: arg}
		}
		if id, ok := arg.(*ast.Ident); ok {
			return VariableArg{Ident: id}
		}
		return OpaqueArg{Expr: arg}
	}
	if assign, value, ok := r.propertyAssignment(fset, site); ok {
		return PropertyAssignment{Assign: assign, Value: value}
	}
	return NoAssignment{}
}

// Resolve determines the SQL bound to the command created at site. Parameter
// placeholders in the returned text are already neutralized.
func (r *Resolver) Resolve(fset *token.FileSet, site extractor.Site) (model.ResolvedStatement, error) {
	tracer := NewTracer(fset, r.policy)

	switch s := r.Classify(fset, site).(type) {
	case LiteralArg:
		text, _ := literalText(s.Expr)
		return model.Found(NeutralizeParameters(text), site.Pos()), nil
	case VariableArg:
		return r.trace(tracer, s.Ident.Name, site.Pos(), site.Ancestors)
	case PropertyAssignment:
		value := ast.Unparen(s.Value)
		if text, ok := literalText(value); ok {
			return model.Found(NeutralizeParameters(text), s.Assign.Pos()), nil
		}
		if id, ok := value.(*ast.Ident); ok {
			return r.trace(tracer, id.Name, s.Assign.Pos(), site.Ancestors)
		}
		return model.ResolvedStatement{}, fmt.Errorf("%w: %s assigned from %T", ErrUnresolvable, r.textField, value)
	case NoAssignment:
		return model.NotFound(site.Pos()), nil
	case OpaqueArg:
		return model.ResolvedStatement{}, fmt.Errorf("%w: argument is %T", ErrUnresolvable, s.Expr)
	default:
		panic(fmt.Sprintf("unexpected shape %T", s))
	}
}

func (r *Resolver) trace(t *Tracer, name string, ref token.Pos, ancestors []ast.Node) (model.ResolvedStatement, error) {
	w, err := t.Trace(name, ref, ancestors)
	if err != nil {
		return model.ResolvedStatement{}, fmt.Errorf("%w: %s: %w", ErrUnresolvable, name, err)
	}
	if w.Value == nil {
		return model.ResolvedStatement{}, fmt.Errorf("%w: %s has no initializer", ErrUnresolvable, name)
	}
	text, ok := literalText(ast.Unparen(w.Value))
	if !ok {
		return model.ResolvedStatement{}, fmt.Errorf("%w: %s is assigned from %T", ErrUnresolvable, name, w.Value)
	}
	return model.Found(NeutralizeParameters(text), w.Value.Pos()), nil
}

// propertyAssignment finds the assignment to <receiver>.<textField> nearest to
// the site among the statements of its enclosing scopes.
func (r *Resolver) propertyAssignment(fset *token.FileSet, site extractor.Site) (*ast.AssignStmt, ast.Expr, bool) {
	if site.Receiver == "" {
		return nil, nil, false
	}
	siteLine := fset.Position(site.Pos()).Line

	var (
		best      *ast.AssignStmt
		bestValue ast.Expr
		bestDist  int
	)
	for _, scope := range site.Ancestors {
		for _, stmt := range scopeStatements(scope) {
			assign, ok := stmt.(*ast.AssignStmt)
			if !ok || assign.Tok != token.ASSIGN || len(assign.Lhs) != len(assign.Rhs) {
				continue
			}
			for i, lhs := range assign.Lhs {
				if !r.isTextField(lhs, site.Receiver) {
					continue
				}
				dist := fset.Position(assign.Pos()).Line - siteLine
				if dist < 0 {
					dist = -dist
				}
				if best == nil || dist < bestDist || (dist == bestDist && assign.Pos() < best.Pos()) {
					best, bestValue, bestDist = assign, assign.Rhs[i], dist
				}
			}
		}
	}
	return best, bestValue, best != nil
}

func (r *Resolver) isTextField(e ast.Expr, receiver string) bool {
	sel, ok := e.(*ast.SelectorExpr)
	if !ok || !strings.EqualFold(sel.Sel.Name, r.textField) {
		return false
	}
	x, ok := ast.Unparen(sel.X).(*ast.Ident)
	return ok && x.Name == receiver
}

// literalText sanitizes a string literal, or a + concatenation of them.
func literalText(e ast.Expr) (string, bool) {
	switch v := e.(type) {
	case *ast.BasicLit:
		if v.Kind != token.STRING {
			return "", false
		}
		return Sanitize(v.Value), true
	case *ast.ParenExpr:
		return literalText(v.X)
	case *ast.BinaryExpr:
		if v.Op != token.ADD {
			return "", false
		}
		left, ok := literalText(v.X)
		if !ok {
			return "", false
		}
		right, ok := literalText(v.Y)
		if !ok {
			return "", false
		}
		return left + right, true
	}
	return "", false
}
