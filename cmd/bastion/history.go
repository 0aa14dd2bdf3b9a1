package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bastion-hq/bastion/pkg/cli"
	"bastion-hq/bastion/pkg/history"
	"bastion-hq/bastion/pkg/history/retention"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune validation history",
	Long: `Inspect and prune recorded validation outcomes.

History must be enabled in configuration (history.enabled). Records hold the
schema name and fingerprint, a SHA-256 of the payload, and the error list;
payloads themselves are never stored.`,
}

var historyQueryFlags struct {
	schema string
	valid  string
	source string
	since  string
	until  string
	limit  int
	offset int
	order  string
	format string
}

var historyQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List recorded validation outcomes",
	Long: `List recorded validation outcomes, newest first.

Examples:
  # Last 20 failures for the user schema
  bastion history query --schema user --valid=false --limit 20

  # Everything recorded by the CLI since a point in time, as JSON
  bastion history query --source cli --since 2026-06-01T00:00:00Z --format json`,
	RunE: queryHistory,
}

var historyPruneFlags struct {
	days       int
	maxRecords int64
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete history records outside the retention policy",
	Long: `Delete history records older than the retention period, then the oldest
records beyond the configured maximum count.

Flags override history.retention for this run only.

Examples:
  # Apply the configured retention policy
  bastion history prune

  # Keep one week
  bastion history prune --days 7`,
	RunE: pruneHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyQueryCmd, historyPruneCmd)

	f := historyQueryCmd.Flags()
	f.StringVar(&historyQueryFlags.schema, "schema", "", "filter by schema name")
	f.StringVar(&historyQueryFlags.valid, "valid", "", "filter by outcome (true or false)")
	f.StringVar(&historyQueryFlags.source, "source", "", "filter by source (http, cli)")
	f.StringVar(&historyQueryFlags.since, "since", "", "only records at or after this RFC 3339 time")
	f.StringVar(&historyQueryFlags.until, "until", "", "only records at or before this RFC 3339 time")
	f.IntVar(&historyQueryFlags.limit, "limit", 0, "maximum records to show (0 uses the configured default)")
	f.IntVar(&historyQueryFlags.offset, "offset", 0, "records to skip")
	f.StringVar(&historyQueryFlags.order, "order", "desc", "sort order by time: asc, desc")
	f.StringVar(&historyQueryFlags.format, "format", "text", "output format: text, json")

	historyPruneCmd.Flags().IntVar(&historyPruneFlags.days, "days", 0, "override retention days")
	historyPruneCmd.Flags().Int64Var(&historyPruneFlags.maxRecords, "max-records", 0, "override maximum record count")
}

func buildHistoryQuery() (*history.Query, error) {
	q := &history.Query{
		SchemaName: historyQueryFlags.schema,
		Source:     historyQueryFlags.source,
		Limit:      historyQueryFlags.limit,
		Offset:     historyQueryFlags.offset,
		SortOrder:  historyQueryFlags.order,
	}
	if v := historyQueryFlags.valid; v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --valid value %q: want true or false", v)
		}
		q.Valid = &b
	}
	if v := historyQueryFlags.since; v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid --since value: %w", err)
		}
		q.StartTime = &t
	}
	if v := historyQueryFlags.until; v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid --until value: %w", err)
		}
		q.EndTime = &t
	}
	return q, nil
}

func queryHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(historyQueryFlags.format)
	if err != nil {
		return err
	}
	q, err := buildHistoryQuery()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	history.ApplyQueryDefaults(q, cfg.History.Query.DefaultLimit)
	if err := history.ValidateQuery(q, cfg.History.Query.MaxLimit); err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	store, err := openHistory(cfg, logger)
	if err != nil {
		return cli.NewCommandError("history query", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.History.Query.Timeout)
	defer cancel()

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("history query", err)
	}
	total, err := store.Count(ctx, q)
	if err != nil {
		return cli.NewCommandError("history query", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), &cli.HistoryTable{Total: total, Records: records})
}

func pruneHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	policy := cfg.History.Retention
	if historyPruneFlags.days > 0 {
		policy.Days = historyPruneFlags.days
	}
	if historyPruneFlags.maxRecords > 0 {
		policy.MaxRecords = historyPruneFlags.maxRecords
	}
	if policy.Days <= 0 && policy.MaxRecords <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No retention policy configured; nothing to prune")
		return nil
	}

	store, err := openHistory(cfg, logger)
	if err != nil {
		return cli.NewCommandError("history prune", err)
	}
	defer store.Close()

	deleted, err := retention.NewPruner(store, policy, logger).Prune(commandContext(cmd))
	if err != nil {
		return cli.NewCommandError("history prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d record(s)\n", deleted)
	return nil
}
