// Package analyzer exposes the checker as a go/analysis pass so it can run
// under singlechecker, multichecker or any compatible driver.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"pgsql-check/internal/auditor"
	"pgsql-check/internal/extractor"
	"pgsql-check/internal/model"
	"pgsql-check/internal/resolver"
)

const doc = `check SQL bound to database commands against a PostgreSQL schema

Every construction of the command type is traced back to the string literal
it most likely receives. The statement is prepared against the database and
undefined tables, undefined columns and syntax errors are reported, as are
commands that never receive a statement.`

// New returns an analyzer validating statements with v.
func New(v model.Validator, opts extractor.Options, logger *slog.Logger) *analysis.Analyzer {
	a := auditor.NewAuditor(resolver.New(opts.TextField, nil), v, logger)

	return &analysis.Analyzer{
		Name:     "pgsqlcheck",
		Doc:      doc,
		Requires: []*analysis.Analyzer{inspect.Analyzer},
		Run: func(pass *analysis.Pass) (interface{}, error) {
			return nil, run(pass, a, opts)
		},
	}
}

func run(pass *analysis.Pass, a *auditor.Auditor, opts extractor.Options) error {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	sites := extractor.FindSites(insp, opts)
	if len(sites) == 0 {
		return nil
	}

	diags, err := a.Audit(context.Background(), pass.Fset, sites)
	if err != nil {
		return fmt.Errorf("%s: %w", pass.Pkg.Path(), err)
	}

	for _, d := range diags {
		ad := analysis.Diagnostic{
			Pos:      d.Pos,
			Category: string(d.Rule),
			Message:  fmt.Sprintf("%s: %s", d.Rule, d.Message),
		}
		if d.Site.IsValid() {
			ad.Related = []analysis.RelatedInformation{{Pos: d.Site, Message: "command constructed here"}}
		}
		pass.Report(ad)
	}
	return nil
}
