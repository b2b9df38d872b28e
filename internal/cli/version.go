package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/photo-sharpness-mcp/internal/ocr"
	"github.com/ironsheep/photo-sharpness-mcp/internal/server"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", server.ServerName, a.build.Version)
			fmt.Fprintf(out, "  Build time: %s\n", a.build.BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", a.build.GitCommit)

			info := ocr.Info()
			if info.Available {
				fmt.Fprintf(out, "  Tesseract:  %s\n", info.Version)
			} else {
				fmt.Fprintln(out, "  Tesseract:  not available")
			}
			return nil
		},
	}
}
