// Package main is the entry point for bpmnauth, the bearer token
// authenticator in front of the process engine REST API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/bpmnauth/internal/config"
	"github.com/vyrodovalexey/bpmnauth/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "bpmnauth"

// exitFunc is the process exit hook. Tests replace it.
var exitFunc = os.Exit

// cliFlags holds the persistent command line flags.
type cliFlags struct {
	configPath string
	logLevel   string
	logFormat  string

	// logOutput is chosen by the subcommand, not by a flag.
	logOutput string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exitFunc(1)
	}
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:   "bpmnauth",
		Short: "OAuth2 bearer token authenticator for the process engine REST API",
		Long: `bpmnauth resolves the user behind an OAuth2 bearer token by calling an
RFC 7662 introspection endpoint, and protects the process engine REST API
with the result.

Configuration comes from an optional YAML file overlaid with the environment
(AUTH_SERVER_URL, AUTH_CLIENT_ID, AUTH_CLIENT_SECRET, TRUST_STORE,
TRUST_STORE_PASSWORD and friends).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c",
		getEnvOrDefault("BPMNAUTH_CONFIG", ""), "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"Log level (debug, info, warn, error); overrides the configuration")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "",
		"Log format (json, console); overrides the configuration")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newIntrospectCmd(flags),
		newVersionCmd(),
	)

	return rootCmd
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "bpmnauth version %s\n", version)
			_, _ = fmt.Fprintf(out, "  Build time: %s\n", buildTime)
			_, _ = fmt.Fprintf(out, "  Git commit: %s\n", gitCommit)
		},
	}
}

// initLogger initializes the logger. Flags win over the configuration.
func initLogger(flags *cliFlags, cfg *config.Config) observability.Logger {
	logCfg := observability.DefaultLogConfig()
	if cfg != nil {
		logCfg.Level = cfg.Logging.Level
		logCfg.Format = cfg.Logging.Format
	}
	if flags.logLevel != "" {
		logCfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		logCfg.Format = flags.logFormat
	}
	if flags.logOutput != "" {
		logCfg.Output = flags.logOutput
	}

	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		exitFunc(1)
		return nil
	}

	return logger
}

// loadConfig loads the configuration and the logger built from it. A load
// or validation failure, such as a missing AUTH_SERVER_URL, is fatal.
func loadConfig(flags *cliFlags) (*config.Config, observability.Logger) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		logger := initLogger(flags, nil)
		if logger == nil {
			return nil, nil
		}
		fatalWithSync(logger, "failed to load configuration",
			observability.String("config", flags.configPath),
			observability.Error(err),
		)
		return nil, nil
	}

	logger := initLogger(flags, cfg)
	return cfg, logger
}

// fatalWithSync logs msg, flushes the logger and exits with status 1.
func fatalWithSync(logger observability.Logger, msg string, fields ...observability.Field) {
	logger.Error(msg, fields...)
	_ = logger.Sync()
	exitFunc(1)
}
