// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ezpark/ezpark/eventdb"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type SeedOptions struct {
	File string
}

var seedOptions = &SeedOptions{}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seeds the event database with data from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if config.DBDSN == "" {
				return errors.New("EZPARK_DB_DSN is not set")
			}

			return seedDatabase(cmd.Context(), seedOptions.File)
		},
	}

	cmd.Flags().StringVar(&seedOptions.File, "file", "", "JSON array of events, e.g. cmd/testdata/seed.json")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func init() {
	rootCmd.AddCommand(newSeedCmd())
}

func seedDatabase(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	evts, err := eventdb.ReadSeed(f)
	if err != nil {
		return err
	}

	repo, closer, err := config.openRepository(ctx)
	if err != nil {
		return fmt.Errorf("opening event database: %w", err)
	}
	defer closer.Close()

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(evts),
			progressbar.OptionSetDescription("Seeding events"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	progress := func(inserted int) {
		if bar != nil {
			_ = bar.Set(inserted)
		}
	}

	// One transaction: a bad row leaves the database as it was.
	if err := repo.SaveEventsWithProgress(ctx, evts, progress); err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}

	n, err := repo.CountEvents(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Database seeded successfully, %d events stored.\n", n)

	return nil
}
