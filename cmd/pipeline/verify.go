package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// verify reports per-collection document counts and the stored aggregates,
// a quick operator check after a run.
func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Print collection counts and the current sector aggregates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			rawCount, err := a.raw.Count(ctx)
			if err != nil {
				return err
			}
			cleanCount, err := a.clean.Count(ctx)
			if err != nil {
				return err
			}
			aggs, err := a.aggs.List(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("raw_startups:       %d\n", rawCount)
			fmt.Printf("clean_startups:     %d\n", cleanCount)
			fmt.Printf("aggregated_sectors: %d\n", len(aggs))

			for _, agg := range aggs {
				fmt.Printf("  %-20s startups=%-7d funding=%.0f growth=%.2f risk=%.2f\n",
					agg.Sector, agg.TotalStartups, agg.TotalFunding, agg.GrowthRate, agg.RiskScore)
			}

			watermark, err := a.meta.CleanWatermark(ctx)
			if err != nil {
				return err
			}
			if !watermark.IsZero() {
				fmt.Printf("clean watermark:    %s\n", watermark.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}
}
