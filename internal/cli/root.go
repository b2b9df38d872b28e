// Package cli wires configuration, logging and storage into the cobra
// commands of the photo-sharpness-mcp binary.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/photo-sharpness-mcp/internal/config"
	"github.com/ironsheep/photo-sharpness-mcp/internal/ledger"
	"github.com/ironsheep/photo-sharpness-mcp/internal/logging"
)

// BuildInfo is stamped into the binary with ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// app holds state shared by every command once PersistentPreRunE has run.
type app struct {
	build BuildInfo

	envFile   string
	threshold float64
	workers   int
	dbPath    string
	logLevel  string

	cfg    config.Config
	logger *zap.Logger
}

// NewRootCmd creates the root command. Without a subcommand it runs the MCP
// stdio server.
func NewRootCmd(build BuildInfo) *cobra.Command {
	if build.Version == "" {
		build.Version = "dev"
	}
	a := &app{build: build}

	rootCmd := &cobra.Command{
		Use:   "photo-sharpness-mcp",
		Short: "Score photos for blur with the variance of the Laplacian",
		Long: `photo-sharpness-mcp flags possibly blurry photos before they are published.

With no subcommand it speaks MCP over stdin/stdout. The http, score, watch
and history subcommands expose the same scorer to upload frontends, scripts
and operators.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMCP(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "optional dotenv file read before the environment")
	flags.Float64Var(&a.threshold, "threshold", 0, "blur threshold (default from PHOTO_SHARPNESS_THRESHOLD or 100)")
	flags.IntVar(&a.workers, "workers", 0, "batch parallelism (default NumCPU)")
	flags.StringVar(&a.dbPath, "db", "", "SQLite assessment ledger path; empty disables history")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newHTTPCmd(a))
	rootCmd.AddCommand(newScoreCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))

	return rootCmd
}

// setup loads configuration, lets explicitly set flags win over the
// environment, and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.Threshold = a.threshold
	}
	if flags.Changed("workers") {
		cfg.Workers = a.workers
	}
	if flags.Changed("db") {
		cfg.DBPath = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openStore opens the ledger when one is configured. A nil store with a nil
// error means history is disabled.
func (a *app) openStore() (*ledger.Store, error) {
	if a.cfg.DBPath == "" {
		return nil, nil
	}
	store, err := ledger.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("assessment ledger opened", zap.String("path", a.cfg.DBPath))
	return store, nil
}

// errBlurry is returned by score --fail-blurry so scripts can gate on the
// exit status.
var errBlurry = errors.New("one or more photos are possibly blurry")

// IsBlurry reports whether err came from score --fail-blurry.
func IsBlurry(err error) bool {
	return errors.Is(err, errBlurry)
}
