package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ironsheep/photo-sharpness-mcp/internal/ledger"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently recorded assessments",
		Long:  `Show the assessment ledger summary and the most recent entries. Requires --db or PHOTO_SHARPNESS_DB.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if store == nil {
				return ledger.ErrDisabled
			}
			defer store.Close()

			ctx := cmd.Context()
			summary, err := store.Summarize(ctx)
			if err != nil {
				return err
			}
			recs, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Summary ledger.Summary  `json:"summary"`
					Recent  []ledger.Record `json:"recent"`
				}{summary, recs})
			}

			fmt.Fprintf(out, "%s assessments: %d sharp, %d possibly blurry, mean score %s\n",
				humanize.Comma(int64(summary.Total)), summary.Sharp, summary.Blurry,
				humanize.CommafWithDigits(summary.MeanScore, 2))
			for _, rec := range recs {
				label := "ok"
				if rec.Blurry {
					label = "BLURRY"
				}
				fmt.Fprintf(out, "%-10s %14s  %-6s %-16s %s\n", label,
					humanize.CommafWithDigits(rec.Score, 2), rec.Source, humanize.Time(rec.CreatedAt), rec.Name)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", ledger.DefaultLimit, "number of recent entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
