package resolver

import (
	"go/ast"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBinding(t *testing.T) {
	src := `package demo

var q = "outer"

func f() {
	q := "SELECT 1"
	q = "SELECT 2"
	q, err := "SELECT 3", error(nil)
	{
		q := "shadow"
		_ = q
	}
	_ = NewCommand(q)
	q = "SELECT 4"
	_ = err
}
`
	unit := extract(t, src)
	require.Len(t, unit.Sites, 1)

	b, ok := FindBinding("q", unit.Sites[0].Ancestors)
	require.True(t, ok)
	assert.Equal(t, Declaration, b.Decl.Kind)
	assert.Equal(t, 6, unit.Fset.Position(b.Decl.At).Line)

	var lines []int
	for _, w := range b.Reassignments {
		assert.Equal(t, Reassignment, w.Kind)
		lines = append(lines, unit.Fset.Position(w.At).Line)
	}
	assert.Equal(t, []int{7, 8, 14}, lines)

	_, ok = FindBinding("missing", unit.Sites[0].Ancestors)
	assert.False(t, ok)
}

func TestNearestLine_Select(t *testing.T) {
	fset := token.NewFileSet()
	f := fset.AddFile("test.go", -1, 1000)
	lines := make([]int, 100)
	for i := range lines {
		lines[i] = i * 10
	}
	require.True(t, f.SetLines(lines))
	at := func(line int) token.Pos { return f.LineStart(line) }

	decl := Write{Kind: Declaration, At: at(10)}
	tests := []struct {
		name  string
		ref   int
		lines []int
		want  int
	}{
		{name: "no reassignments", ref: 20, want: 10},
		{name: "closer reassignment", ref: 20, lines: []int{19}, want: 19},
		{name: "equal distance keeps declaration", ref: 15, lines: []int{20}, want: 10},
		{name: "minimum distance wins", ref: 30, lines: []int{12, 28, 33}, want: 28},
		{name: "first of equally close reassignments", ref: 30, lines: []int{28, 32}, want: 28},
		{name: "reassignment after reference", ref: 20, lines: []int{21}, want: 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Binding{Name: "q", Decl: decl}
			for _, l := range tt.lines {
				b.Reassignments = append(b.Reassignments, Write{Kind: Reassignment, At: at(l)})
			}
			got := NearestLine{}.Select(fset, at(tt.ref), b)
			assert.Equal(t, tt.want, fset.Position(got.At).Line)
		})
	}
}

type declarationOnly struct{}

func (declarationOnly) Select(_ *token.FileSet, _ token.Pos, b *Binding) Write { return b.Decl }

func TestTracer_CustomPolicy(t *testing.T) {
	src := `package demo

func f() {
	q := "SELECT 1"
	q = "SELECT 2"
	_ = NewCommand(q)
}
`
	unit := extract(t, src)
	require.Len(t, unit.Sites, 1)
	site := unit.Sites[0]

	w, err := NewTracer(unit.Fset, declarationOnly{}).Trace("q", site.Pos(), site.Ancestors)
	require.NoError(t, err)
	assert.Equal(t, `"SELECT 1"`, w.Value.(*ast.BasicLit).Value)

	w, err = NewTracer(unit.Fset, nil).Trace("q", site.Pos(), site.Ancestors)
	require.NoError(t, err)
	assert.Equal(t, `"SELECT 2"`, w.Value.(*ast.BasicLit).Value)

	_, err = NewTracer(unit.Fset, nil).Trace("nope", site.Pos(), site.Ancestors)
	assert.ErrorIs(t, err, ErrNoBinding)
}
