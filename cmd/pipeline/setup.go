package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"marketmind/internal/pipeline/source"
	"marketmind/internal/store/mongostore"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Enable sharding, shard the large collections, and create indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			if !a.client.IsRouter {
				return fmt.Errorf("endpoint %s is not a mongos router; sharding commands need the router", a.cfg.MongoURI)
			}

			if err := mongostore.EnsureSharding(ctx, a.client.Client, a.cfg.Database); err != nil {
				return err
			}
			a.log.Info("sharding configured",
				"raw_key", "{_id: hashed}",
				"clean_key", "{sector: 1, _id: 1}",
			)

			if err := mongostore.EnsureIndexes(ctx, a.client.Database()); err != nil {
				return err
			}
			a.log.Info("indexes created")
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var out string
	var count int
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic startup feed to a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()

			gen := source.NewGenerator(count, seed)
			n, err := source.WriteCSV(cmd.Context(), f, gen)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %d records to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "data/raw/startups.csv", "output path")
	cmd.Flags().IntVar(&count, "count", 1_000_000, "records to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "generator seed")
	return cmd
}
