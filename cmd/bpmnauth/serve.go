package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/bpmnauth/internal/observability"
)

// newServeCmd creates the serve command.
func newServeCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the protected REST API until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags)
		},
	}
}

// runServe loads the configuration, builds the application and serves until
// ctx is done.
func runServe(ctx context.Context, flags *cliFlags) error {
	cfg, logger := loadConfig(flags)
	if cfg == nil {
		return errConfig
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting bpmnauth",
		observability.String("version", version),
		observability.String("config", flags.configPath),
		observability.String("address", cfg.Server.Address),
		observability.String("basePath", cfg.Server.BasePath),
	)

	app, err := newApplication(cfg, logger)
	if err != nil {
		fatalWithSync(logger, "failed to initialize application", observability.Error(err))
		return err
	}

	if err := app.run(ctx); err != nil {
		logger.Error("server failed", observability.Error(err))
		return err
	}
	return nil
}
