package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/photo-sharpness-mcp/internal/imaging"
	"github.com/ironsheep/photo-sharpness-mcp/internal/ledger"
	"github.com/ironsheep/photo-sharpness-mcp/internal/sharpness"
)

type scoreReport struct {
	Entries []sharpness.BatchEntry `json:"entries"`
	Summary sharpness.BatchSummary `json:"summary"`
}

func newScoreCmd(a *app) *cobra.Command {
	var (
		asJSON     bool
		failBlurry bool
	)

	cmd := &cobra.Command{
		Use:   "score <photo> [photo...]",
		Short: "Score photos and report which look blurry",
		Long: `Score each photo with the variance of the Laplacian and compare it with the
blur threshold. Photos that cannot be decoded are reported and do not stop
the rest of the batch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries := sharpness.AssessBatch(ctx, args, imaging.Open, a.cfg.Threshold, a.cfg.Workers)
			summary := sharpness.Summarize(entries)

			if err := a.recordBatch(ctx, entries); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(scoreReport{Entries: entries, Summary: summary}); err != nil {
					return err
				}
			} else {
				writeScoreTable(out, entries, summary)
			}

			if failBlurry && summary.Blurry > 0 {
				return errBlurry
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the batch as JSON")
	cmd.Flags().BoolVar(&failBlurry, "fail-blurry", false, "exit non-zero when any photo is possibly blurry")
	return cmd
}

func (a *app) recordBatch(ctx context.Context, entries []sharpness.BatchEntry) error {
	store, err := a.openStore()
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	for _, e := range entries {
		if e.Assessment == nil {
			continue
		}
		if _, err := store.Add(ctx, ledger.NewRecord(ledger.SourceCLI, e.Name, *e.Assessment)); err != nil {
			a.logger.Error("failed to record assessment", zap.String("path", e.Name), zap.Error(err))
		}
	}
	return nil
}

func writeScoreTable(w io.Writer, entries []sharpness.BatchEntry, summary sharpness.BatchSummary) {
	for _, e := range entries {
		if e.Assessment == nil {
			fmt.Fprintf(w, "%-10s %14s  %s (%s)\n", "error", "-", e.Name, e.Error)
			continue
		}
		label := "ok"
		if e.Assessment.Blurry {
			label = "BLURRY"
		}
		fmt.Fprintf(w, "%-10s %14s  %s\n", label, humanize.CommafWithDigits(e.Assessment.Score, 2), e.Name)
	}
	fmt.Fprintf(w, "\n%s scored: %d sharp, %d possibly blurry, %d failed\n",
		humanize.Comma(int64(summary.Total)), summary.Sharp, summary.Blurry, summary.Failed)
}
