// Command pgsql-vet runs the SQL schema check as a go/analysis pass.
//
// The connection string and other settings come from the PGSQLCHECK_*
// environment variables or the .pgsql-check.env file, since the analysis
// driver owns the command line.
package main

import (
	"log"
	"log/slog"
	"os"

	"golang.org/x/tools/go/analysis/singlechecker"

	"pgsql-check/internal/analyzer"
	"pgsql-check/internal/config"
	"pgsql-check/internal/extractor"
	"pgsql-check/internal/model"
	"pgsql-check/internal/validator"
)

func main() {
	cfg, err := config.Load("", nil)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v: set %sCONNECTION_STRING or %sSCHEMA", err, config.EnvPrefix, config.EnvPrefix)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var v model.Validator
	if cfg.ConnectionString != "" {
		v, err = validator.NewPostgres(cfg.ConnectionString, logger)
	} else {
		v, err = validator.NewSchemaFile(cfg.SchemaFile, logger)
	}
	if err != nil {
		log.Fatal(err)
	}

	opts := extractor.Options{TypeName: cfg.TypeName, TextField: cfg.TextField}
	singlechecker.Main(analyzer.New(v, opts, logger))
}
