package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ironsheep/photo-sharpness-mcp/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		backfill bool
		settle   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Score photos as they arrive in an upload directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("settle") {
				a.cfg.Settle = settle
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			w, err := watch.New(watch.Options{
				Dir:       args[0],
				Threshold: a.cfg.Threshold,
				Settle:    a.cfg.Settle,
				Backfill:  backfill,
				Store:     store,
				Logger:    a.logger,
				OnResult:  func(r watch.Result) {
					mu.Lock()
					defer mu.Unlock()
					if r.Err != nil {
						fmt.Fprintf(out, "%-10s %14s  %s (%v)\n", "error", "-", r.Path, r.Err)
						return
					}
					label := "ok"
					if r.Assessment.Blurry {
						label = "BLURRY"
					}
					fmt.Fprintf(out, "%-10s %14s  %s\n", label, humanize.CommafWithDigits(r.Assessment.Score, 2), r.Path)
				},
			})
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&backfill, "backfill", false, "score photos already in the directory first")
	cmd.Flags().DurationVar(&settle, "settle", 0, "quiet period before a new file is scored (default 500ms)")
	return cmd
}
