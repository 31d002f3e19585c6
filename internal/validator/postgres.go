// Package validator checks resolved statements against a database schema.
package validator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"pgsql-check/internal/model"
)

// ErrEmptyConnectionString is returned when no connection string is supplied.
var ErrEmptyConnectionString = errors.New("invalid connection string: empty")

// Opener creates a database handle for a connection string.
type Opener func(dsn string) (*sql.DB, error)

func openPgx(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// Postgres validates statements by preparing them on a live server. Preparing
// parses and plans the statement without fetching or changing rows.
//
// Every call opens its own connection so validations never share session or
// transaction state and may run concurrently.
type Postgres struct {
	dsn    string
	open   Opener
	logger *slog.Logger
}

var _ model.Validator = (*Postgres)(nil)

// NewPostgres creates a validator for the given connection string.
// If logger is nil, a discard logger is used.
func NewPostgres(dsn string, logger *slog.Logger) (*Postgres, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrEmptyConnectionString
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Postgres{dsn: dsn, open: openPgx, logger: logger}, nil
}

// WithOpener replaces how database handles are created.
func (p *Postgres) WithOpener(open Opener) *Postgres {
	p.open = open
	return p
}

// Validate prepares sql on a fresh connection and classifies the result.
// Errors returned here concern reaching the server, never the statement.
func (p *Postgres) Validate(ctx context.Context, query string) (model.Outcome, error) {
	db, err := p.open(p.dsn)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer conn.Close()

	// The server prepares one command at a time.
	for _, part := range SplitStatements(query) {
		outcome, err := p.prepare(ctx, conn, part)
		if err != nil || outcome.Kind != model.OutcomeOK {
			return outcome, err
		}
	}
	return model.OK(), nil
}

func (p *Postgres) prepare(ctx context.Context, conn *sql.Conn, query string) (model.Outcome, error) {
	stmt, err := conn.PrepareContext(ctx, query)
	if err == nil {
		_ = stmt.Close()
		p.logger.Debug("statement prepared", slog.String("sql", query))
		return model.OK(), nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return model.Outcome{}, fmt.Errorf("failed to prepare statement: %w", err)
	}

	outcome := Classify(query, pgErr)
	p.logger.Debug("statement rejected",
		slog.String("sqlstate", pgErr.Code),
		slog.String("outcome", outcome.Kind.String()),
		slog.String("sql", query))
	return outcome, nil
}
