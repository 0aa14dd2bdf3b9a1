package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bastion-hq/bastion/pkg/cli"
	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/history"
	"bastion-hq/bastion/pkg/history/retention"
	"bastion-hq/bastion/pkg/registry"
	"bastion-hq/bastion/pkg/registry/gitsource"
	"bastion-hq/bastion/pkg/server"
	"bastion-hq/bastion/pkg/telemetry"
	"bastion-hq/bastion/pkg/telemetry/health"
)

var serveFlags struct {
	listenAddress string
	schemaDir     string
	noWatch       bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation server",
	Long: `Start the HTTP validation server with the specified configuration.

The server loads every schema document under the registry directory (or a
Git repository in git mode), validates payloads posted to
/v1/schemas/{name}/validate and reloads schemas when documents change.

Examples:
  # Start with default config (schemas from ./schemas)
  bastion serve

  # Start with custom config
  bastion serve --config /etc/bastion/config.yaml

  # Override listen address and schema directory
  bastion serve --listen 0.0.0.0:9090 --schemas ./contracts

  # Load schemas and validate config without starting the server
  bastion serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.schemaDir, "schemas", "", "override schema directory (file mode)")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "do not reload schemas on file changes")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "load schemas and validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.schemaDir != "" {
		cfg.Registry.Dir = serveFlags.schemaDir
	}
	if serveFlags.noWatch {
		cfg.Registry.Watch = false
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("config", err.Error())
	}

	tel, err := telemetry.New(&cfg.Telemetry, cmd.ErrOrStderr())
	if err != nil {
		return cli.NewConfigError("telemetry", err.Error())
	}
	logger := tel.Logger()
	slog.SetDefault(logger)

	ctx, stop := cli.SetupSignalHandler(commandContext(cmd))
	defer stop()

	// Schema source
	regCfg := cfg.Registry
	var repo *gitsource.Repository
	if regCfg.Mode == "git" {
		repo, err = gitsource.NewRepository(&regCfg.Git)
		if err != nil {
			return cli.NewConfigError("registry.git", err.Error())
		}
		if err := repo.Clone(ctx); err != nil {
			return cli.NewCommandError("serve", fmt.Errorf("clone schema repository: %w", err))
		}
		regCfg.Dir = repo.SchemaPath()
		regCfg.Watch = false
	}

	reg, err := registry.New(&regCfg, logger)
	if err != nil {
		return cli.NewConfigError("registry", err.Error())
	}
	reg.OnReload(tel.Metrics().RecordReload)
	if err := reg.Load(); err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("load schemas: %w", err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Schemas loaded (%d from %s, version %s)\n", reg.Len(), regCfg.Dir, reg.Version())

	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	checker := tel.Health()
	checker.RegisterCheck("registry", health.RegistryCheck(reg, cfg.Telemetry.Health.MinSchemas))

	// Validation history
	var (
		store    history.Storage
		recorder *history.Recorder
	)
	if cfg.History.Enabled {
		store, err = openHistory(cfg, logger)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer store.Close()

		recorder = history.NewRecorder(store, cfg.History.Recorder, logger)
		defer recorder.Close()
		checker.RegisterCheck("history", health.StorageCheck(store))

		if schedule := cfg.History.Retention.PruneSchedule; schedule != "" {
			pruner := retention.NewPruner(store, cfg.History.Retention, logger)
			scheduler := retention.NewScheduler(pruner, schedule, logger)
			if err := scheduler.Start(ctx); err != nil {
				return cli.NewConfigError("history.retention.prune_schedule", err.Error())
			}
			defer scheduler.Stop()
		}
		fmt.Fprintf(out, "✓ Validation history enabled (%s)\n", cfg.History.Backend)
	}

	srv, err := server.NewServer(cfg, server.Options{
		Schemas:  reg,
		Recorder: recorder,
		History:  store,
		Metrics:  tel.Metrics(),
		Health:   checker,
		Version:  health.VersionInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
		Logger:   logger,
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	var poller *gitsource.Poller
	if repo != nil && regCfg.Git.Poll.Enabled {
		poller, err = gitsource.NewPoller(repo, regCfg.Git.Poll.Interval, reg.Reload, logger)
		if err != nil {
			return cli.NewConfigError("registry.git.poll", err.Error())
		}
		checker.RegisterCheck("git", health.GitCheck(poller))
	}

	var g *errgroup.Group
	g, ctx = errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(ctx) })
	switch {
	case poller != nil:
		g.Go(func() error { return poller.Run(ctx) })
	case regCfg.Watch:
		g.Go(func() error { return reg.Watch(ctx) })
	}

	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("serve", err)
	}
	logger.Info("server stopped")
	return nil
}
