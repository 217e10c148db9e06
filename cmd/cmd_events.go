// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ezpark/ezpark/eventdb"
	"github.com/ezpark/ezpark/events"
	"github.com/spf13/cobra"
)

type EventsOptions struct {
	JSON  bool
	Rings int
}

var eventsOptions = &EventsOptions{}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Browse the event catalog and the event database",
}

func printEntries(entries []events.Entry) error {
	if eventsOptions.JSON {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.PostalCode, e.Label)
	}

	return w.Flush()
}

func printEvents(evts []*eventdb.Event) error {
	if eventsOptions.JSON {
		return json.NewEncoder(os.Stdout).Encode(evts)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range evts {
		point := "-"
		if e.Point != nil {
			point = fmt.Sprintf("%.5f, %.5f", e.Point.Lat, e.Point.Lng)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Location, point, e.Name)
	}

	return w.Flush()
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available events",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return printEntries(events.DefaultDirectory().ListAvailable())
	},
}

var eventsSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search the catalog ignoring case and accents",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return printEntries(events.DefaultDirectory().Search(args[0]))
	},
}

var eventsAtCmd = &cobra.Command{
	Use:   "at <zip>",
	Short: "List the database events held at a postal code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closer, err := config.openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closer.Close()

		if repo == nil {
			return errors.New("EZPARK_DB_DSN is not set")
		}

		evts, err := repo.FetchEventsForLocation(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printEvents(evts)
	},
}

var eventsNearCmd = &cobra.Command{
	Use:   "near <zip>",
	Short: "List the database events around a postal code, closest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if eventsOptions.Rings < 0 || eventsOptions.Rings > 10 {
			return fmt.Errorf("--rings must be between 0 and 10, got %d", eventsOptions.Rings)
		}

		repo, closer, err := config.openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer closer.Close()

		if repo == nil {
			return errors.New("EZPARK_DB_DSN is not set")
		}

		resolver, err := config.newResolver(cmd.Context())
		if err != nil {
			return err
		}

		center, err := resolver.Resolve(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}

		evts, err := repo.FetchEventsNear(cmd.Context(), center, eventsOptions.Rings)
		if err != nil {
			return err
		}

		return printEvents(evts)
	},
}

func init() {
	eventsCmd.PersistentFlags().BoolVar(&eventsOptions.JSON, "json", false, "print JSON instead of a table")
	eventsNearCmd.Flags().IntVar(&eventsOptions.Rings, "rings", 2, "H3 rings to search around the postal code")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsSearchCmd)
	eventsCmd.AddCommand(eventsAtCmd)
	eventsCmd.AddCommand(eventsNearCmd)
	rootCmd.AddCommand(eventsCmd)
}
