package auditor

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"log/slog"

	"pgsql-check/internal/extractor"
	"pgsql-check/internal/model"
	"pgsql-check/internal/resolver"
)

// Auditor resolves the SQL of every construction site, validates it and
// turns the outcome into diagnostics.
type Auditor struct {
	resolver  *resolver.Resolver
	validator model.Validator
	logger    *slog.Logger
}

// NewAuditor wires the pipeline. If logger is nil, a discard logger is used.
func NewAuditor(r *resolver.Resolver, v model.Validator, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Auditor{
		resolver:  r,
		validator: v,
		logger:    logger,
	}
}

// Audit returns one diagnostic per site whose SQL is missing or rejected.
// A validator error stops the audit: it means the schema could not be
// reached, and carrying on would hide findings.
func (a *Auditor) Audit(ctx context.Context, fset *token.FileSet, sites []extractor.Site) ([]model.Diagnostic, error) {
	var diags []model.Diagnostic

	for _, site := range sites {
		loc := model.LocationOf(fset, site.Pos())

		stmt, err := a.resolver.Resolve(fset, site)
		if errors.Is(err, resolver.ErrUnresolvable) {
			a.logger.Debug("skipping construction site", slog.String("at", loc.String()), slog.Any("reason", err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", loc, err)
		}

		if stmt.NotFound {
			diags = append(diags, a.locate(fset, Missing(stmt)))
			continue
		}

		outcome, err := a.validator.Validate(ctx, stmt.SQL)
		if err != nil {
			return nil, fmt.Errorf("validate statement at %s: %w", model.LocationOf(fset, stmt.Pos), err)
		}
		a.logger.Debug("statement validated",
			slog.String("at", loc.String()),
			slog.String("outcome", outcome.Kind.String()))

		if d, ok := Emit(outcome, stmt); ok {
			if stmt.Pos != site.Pos() {
				d.Site = site.Pos()
				d.AdditionalLocations = []model.Location{loc}
			}
			diags = append(diags, a.locate(fset, d))
		}
	}

	return diags, nil
}

// AuditUnit audits every site of a parsed unit.
func (a *Auditor) AuditUnit(ctx context.Context, unit *extractor.Unit) ([]model.Diagnostic, error) {
	return a.Audit(ctx, unit.Fset, unit.Sites)
}

func (a *Auditor) locate(fset *token.FileSet, d model.Diagnostic) model.Diagnostic {
	d.Location = model.LocationOf(fset, d.Pos)
	return d
}
