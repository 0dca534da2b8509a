package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/bpmnauth/internal/auth"
	"github.com/vyrodovalexey/bpmnauth/internal/observability"
	tlspkg "github.com/vyrodovalexey/bpmnauth/internal/tls"
)

// errConfig is returned after a fatal configuration failure has been logged.
var errConfig = errors.New("configuration failed")

// newIntrospectCmd creates the introspect command.
func newIntrospectCmd(flags *cliFlags) *cobra.Command {
	var header string

	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Authenticate one Authorization header value and print the username",
		Long: `Runs the full bearer token check once against the configured introspection
endpoint. On success the username is printed. On failure the error kind is
printed and the exit status is 1.

Example:
  bpmnauth introspect --header "Bearer 2YotnFZFEjr1zCsicMWpAA"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries only the username.
			flags.logOutput = "stderr"
			return runIntrospect(cmd, flags, header)
		},
	}

	cmd.Flags().StringVar(&header, "header", "", "Authorization header value, for example \"Bearer <token>\"")

	return cmd
}

// runIntrospect authenticates header and reports the outcome on the command's
// output streams.
func runIntrospect(cmd *cobra.Command, flags *cliFlags, header string) error {
	cfg, logger := loadConfig(flags)
	if cfg == nil {
		return errConfig
	}
	defer func() { _ = logger.Sync() }()

	if _, err := tlspkg.ConfigureTrust(cfg.TrustStore, logger); err != nil {
		return fmt.Errorf("failed to configure trust store: %w", err)
	}

	validator, err := newValidator(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	headers := auth.HeaderMap{}
	if header != "" {
		headers[auth.HeaderAuthorization] = header
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	username, err := validator.Authenticate(ctx, headers)
	if err != nil {
		logger.Debug("introspection failed", observability.Error(err))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), auth.Outcome(err))
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), username)
	return nil
}
