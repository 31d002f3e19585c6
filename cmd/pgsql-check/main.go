package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"pgsql-check/internal/auditor"
	"pgsql-check/internal/config"
	"pgsql-check/internal/extractor"
	"pgsql-check/internal/model"
	"pgsql-check/internal/reporter"
	"pgsql-check/internal/resolver"
	"pgsql-check/internal/scanner"
	"pgsql-check/internal/validator"
)

var (
	srcPath string
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "pgsql-check",
	Short: "Validate SQL embedded in Go code against a PostgreSQL schema",
	Long: `pgsql-check scans Go sources for database command constructions,
traces each one back to the SQL text it receives and prepares that
statement against a live PostgreSQL database, reporting undefined
tables, undefined columns, syntax errors and commands without SQL.

Without a connection string, a schema file can be used instead.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%w: set --dsn, %sCONNECTION_STRING or --schema", err, config.EnvPrefix)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runAnalysis(ctx, cfg, newLogger(cfg.Verbose))
	},
}

func init() {
	rootCmd.Flags().StringVarP(&srcPath, "src", "s", ".", "Path to source code to scan")
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Configuration file, KEY=VALUE or YAML (default "+config.DefaultFile+" if present)")
	rootCmd.Flags().String("dsn", "", "PostgreSQL connection string")
	rootCmd.Flags().StringP("schema", "S", "", "Schema SQL file used when no connection string is set")
	rootCmd.Flags().String("type", "Command", "Name of the command type to look for")
	rootCmd.Flags().String("field", "Text", "Name of the field holding the SQL text")
	rootCmd.Flags().StringSliceP("exclude", "e", []string{"vendor", "*_test.go"}, "Glob patterns to exclude from scan")
	rootCmd.Flags().IntP("concurrency", "j", 8, "Number of files processed in parallel")
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newValidator(cfg *config.Config, logger *slog.Logger) (model.Validator, error) {
	if cfg.ConnectionString != "" {
		pg, err := validator.NewPostgres(cfg.ConnectionString, logger)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	if cfg.SchemaFile != "" {
		logger.Info("validating against schema file", slog.String("path", cfg.SchemaFile))
		sf, err := validator.NewSchemaFile(cfg.SchemaFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema: %w", err)
		}
		return sf, nil
	}
	return nil, config.ErrNoConnection
}

func runAnalysis(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if _, err := os.Stat(srcPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("source path does not exist: %s", srcPath)
	}

	v, err := newValidator(cfg, logger)
	if err != nil {
		return err
	}

	opts := extractor.Options{TypeName: cfg.TypeName, TextField: cfg.TextField}
	mgr := extractor.NewManager()
	mgr.Register("go", extractor.NewGoExtractor(opts))

	audit := auditor.NewAuditor(resolver.New(opts.TextField, nil), v, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	walker := scanner.NewFileWalker(mgr.Extensions(), cfg.Excludes)
	paths, walkErrs := walker.Walk(ctx, srcPath)

	pool := scanner.NewWorkerPool(cfg.Concurrency, func(ctx context.Context, path string) ([]model.Diagnostic, error) {
		unit, err := mgr.Extract(path)
		if err != nil {
			logger.Warn("skipping file", slog.String("path", path), slog.Any("error", err))
			return nil, nil
		}
		return audit.AuditUnit(ctx, unit)
	})

	logger.Debug("scan started", slog.String("src", srcPath), slog.Int("concurrency", pool.Concurrency))
	results, err := pool.Run(ctx, paths)
	if err != nil {
		return fmt.Errorf("analysis aborted: %w", err)
	}
	for err := range walkErrs {
		return fmt.Errorf("walk %s: %w", srcPath, err)
	}

	var diags []model.Diagnostic
	for _, res := range results {
		diags = append(diags, res.Diagnostics...)
	}
	sortDiagnostics(diags)
	logger.Debug("scan complete", slog.Int("files", len(results)), slog.Int("diagnostics", len(diags)))

	return reporter.NewConsoleReporter(os.Stdout).Report(diags)
}

func sortDiagnostics(diags []model.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Location, diags[j].Location
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}
