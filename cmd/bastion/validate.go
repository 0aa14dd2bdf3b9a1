package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bastion-hq/bastion/pkg/cli"
	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/history"
	"bastion-hq/bastion/pkg/history/storage"
	"bastion-hq/bastion/pkg/schema"
	"bastion-hq/bastion/pkg/schema/parser"
	"bastion-hq/bastion/pkg/validate"
)

// SourceCLI marks history records written by the validate command.
const SourceCLI = "cli"

var validateFlags struct {
	schemaFile string
	format     string
	jobs       int
	progress   bool
	record     bool
}

var validateCmd = &cobra.Command{
	Use:   "validate --schema FILE PAYLOAD...",
	Short: "Validate payload files against a schema",
	Long: `Validate one or more JSON payload files against a schema document.

Every payload is checked independently and every violation is reported.
Use "-" to read a payload from standard input.

Exit status is 0 when all payloads are valid, 1 when any payload is invalid
or unreadable, and 2 on usage or configuration errors.

Examples:
  # Validate two payloads
  bastion validate --schema schemas/user.json a.json b.json

  # Validate from a pipe
  cat event.json | bastion validate --schema schemas/event.yaml -

  # JSON report, recorded to validation history
  bastion validate --schema user.json --format json --record *.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.schemaFile, "schema", "s", "", "schema document (.json, .yaml, .yml, .toml)")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
	validateCmd.Flags().IntVarP(&validateFlags.jobs, "jobs", "j", runtime.NumCPU(), "payloads validated in parallel")
	validateCmd.Flags().BoolVar(&validateFlags.progress, "progress", false, "show a progress bar on stderr")
	validateCmd.Flags().BoolVar(&validateFlags.record, "record", false, "record outcomes to validation history")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateFlags.schemaFile == "" {
		return fmt.Errorf("--schema must be specified")
	}
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}
	if countStdin(args) > 1 {
		return fmt.Errorf("standard input (-) can be given only once")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := parser.NewParser().
		WithMaxFileSize(cfg.Registry.MaxFileSize).
		WithStrictMode(cfg.Registry.Strict).
		Parse(validateFlags.schemaFile)
	if err != nil {
		return cli.NewCommandError("validate", fmt.Errorf("load schema: %w", err))
	}

	ctx := commandContext(cmd)

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	var recorder *history.Recorder
	if validateFlags.record {
		rec, closeFn, err := openRecorder(cfg, logger)
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		defer closeFn()
		recorder = rec
	}

	var progress cli.ProgressReporter = cli.NoProgress{}
	if validateFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "validating")
	}

	results := make([]cli.ValidationResult, len(args))
	progress.Start(int64(len(args)))

	var g errgroup.Group
	g.SetLimit(max(validateFlags.jobs, 1))
	for i, path := range args {
		g.Go(func() error {
			results[i] = validatePayload(ctx, doc.Schema, path, cmd.InOrStdin(), recorder, logger)
			progress.Increment()
			return nil
		})
	}
	_ = g.Wait()
	progress.Finish()

	report := cli.NewValidationReport(doc.Schema.Name, results)
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.OK() {
		return cli.ErrChecksFailed
	}
	return nil
}

// validatePayload never fails: read and decode problems are reported in the
// result so the rest of the batch still runs.
func validatePayload(ctx context.Context, s *schema.Schema, path string, stdin io.Reader, rec *history.Recorder, logger *slog.Logger) cli.ValidationResult {
	res := cli.ValidationResult{Source: path}

	data, err := readPayload(path, stdin)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	start := time.Now()
	payload, err := validate.DecodePayloadBytes(data)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	errs := validate.Check(s, payload)
	elapsed := time.Since(start)

	res.Valid = !errs.HasErrors()
	if !res.Valid {
		res.Errors = errs
	}

	if rec != nil {
		err := rec.Record(ctx, history.Outcome{
			Schema:   s,
			Payload:  data,
			Errors:   errs,
			Source:   SourceCLI,
			Duration: elapsed,
		})
		if err != nil {
			logger.WarnContext(ctx, "failed to record validation", "payload", path, "error", err)
		}
	}
	return res
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read standard input: %w", err)
		}
		return data, nil
	}
	return os.ReadFile(path)
}

func countStdin(args []string) int {
	n := 0
	for _, a := range args {
		if a == "-" {
			n++
		}
	}
	return n
}

// openRecorder opens the configured history backend and starts a recorder on
// it. The returned func drains the recorder and then closes the storage.
func openRecorder(cfg *config.Config, logger *slog.Logger) (*history.Recorder, func(), error) {
	store, err := openHistory(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	rec := history.NewRecorder(store, cfg.History.Recorder, logger)
	return rec, func() {
		_ = rec.Close()
		_ = store.Close()
	}, nil
}

func openHistory(cfg *config.Config, logger *slog.Logger) (history.Storage, error) {
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("validation history is disabled in configuration")
	}
	store, err := storage.New(&cfg.History, logger)
	if err != nil {
		return nil, fmt.Errorf("open history storage: %w", err)
	}
	return store, nil
}
