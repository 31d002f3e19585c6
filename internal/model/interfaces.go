package model

import "context"

// Validator checks a statement against a database schema.
//
// SQL problems are reported through the Outcome. A returned error means the
// schema could not be consulted at all (connection refused, bad credentials)
// and must abort the analysis instead of being reported as a SQL finding.
type Validator interface {
	Validate(ctx context.Context, sql string) (Outcome, error)
}

// Reporter defines how to output results
type Reporter interface {
	Report(diags []Diagnostic) error
}
