// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezpark/ezpark/events"
	"github.com/ezpark/ezpark/mapserver"
	"github.com/ezpark/ezpark/pipeline"
	"github.com/spf13/cobra"
)

type ServeOptions struct {
	Addr   string
	Events []string
}

var serveOptions = &ServeOptions{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the map HTTP API (local only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		directory := events.DefaultDirectory()
		if len(serveOptions.Events) > 0 {
			var err error

			directory, err = events.NewDirectory(serveOptions.Events)
			if err != nil {
				return fmt.Errorf("building event catalog: %w", err)
			}
		}

		resolver, err := config.newResolver(ctx)
		if err != nil {
			return err
		}

		fetcher, err := config.newFetcher()
		if err != nil {
			return err
		}

		repo, closer, err := config.openRepository(ctx)
		if err != nil {
			return fmt.Errorf("opening event database: %w", err)
		}
		defer closer.Close()

		if repo == nil {
			log.Println("EZPARK_DB_DSN is not set, database endpoints are disabled")
		}

		p := newPipeline(resolver, fetcher)
		defer p.Close()

		server := mapserver.NewServer(p, directory, events.NewSavedEvents(), resolver, repo)

		err = server.Run(ctx, serveOptions.Addr)
		if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOptions.Addr, "addr", "localhost:8080", "address to listen on")
	serveCmd.Flags().StringSliceVar(
		&serveOptions.Events,
		"event",
		nil,
		`event catalog entry, repeatable, e.g. --event "Hershey Park (17033)"`,
	)
	serveCmd.Flags().IntVar(&routeOptions.Zoom, "zoom", pipeline.DefaultZoom, "zoom level used when centering")
	rootCmd.AddCommand(serveCmd)
}
