package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/photo-sharpness-mcp/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdin/stdout",
		Long: `Run the MCP server over stdin/stdout. This is also what the binary does
when started without a subcommand, which is how MCP clients launch it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMCP(cmd)
		},
	}
}

func (a *app) runMCP(cmd *cobra.Command) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	a.logger.Info("starting MCP server",
		zap.String("version", a.build.Version),
		zap.String("commit", a.build.GitCommit),
		zap.Float64("threshold", a.cfg.Threshold),
		zap.Bool("ledger", store != nil))

	srv := server.New(server.Options{
		Threshold:   a.cfg.Threshold,
		Workers:     a.cfg.Workers,
		Grid:        a.cfg.Grid,
		OCRLanguage: a.cfg.OCRLanguage,
		Version:     a.build.Version,
		Store:       store,
		Logger:      a.logger,
	})
	return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}
