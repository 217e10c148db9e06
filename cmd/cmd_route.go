// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ezpark/ezpark/events"
	"github.com/ezpark/ezpark/geocode"
	"github.com/ezpark/ezpark/pipeline"
	"github.com/ezpark/ezpark/routing"
	"github.com/spf13/cobra"
)

type RouteOptions struct {
	Zoom       int
	ShowPoints bool
}

var routeOptions = &RouteOptions{}

// terminalSurface prints commands instead of drawing them. It stops the
// drain loop after the first command, the CLI issues a single request.
type terminalSurface struct {
	w       io.Writer
	points  bool
	stop    context.CancelFunc
	failure string
}

func (s *terminalSurface) CenterView(lat, lon float64, zoom int) {
	fmt.Fprintf(s.w, "center\t%.6f, %.6f\tzoom %d\n", lat, lon, zoom)
	s.stop()
}

func (s *terminalSurface) PlotPath(path [][2]float64) {
	fmt.Fprintf(s.w, "route\t%d points", len(path))

	if len(path) > 0 {
		first, last := path[0], path[len(path)-1]
		fmt.Fprintf(s.w, "\tfrom %.6f, %.6f to %.6f, %.6f", first[0], first[1], last[0], last[1])
	}

	fmt.Fprintln(s.w)

	if s.points {
		for _, p := range path {
			fmt.Fprintf(s.w, "%.6f\t%.6f\n", p[0], p[1])
		}
	}

	s.stop()
}

func (s *terminalSurface) ShowError(message string) {
	s.failure = message
	s.stop()
}

// runOnce submits a single request and prints the command it produces.
func runOnce(ctx context.Context, p *pipeline.Pipeline, submit func(*pipeline.Pipeline) string) error {
	defer p.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	surface := &terminalSurface{w: os.Stdout, points: routeOptions.ShowPoints, stop: cancel}

	if id := submit(p); id == "" {
		return errors.New("pipeline is closed")
	}

	if err := p.Drain(ctx, surface); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if surface.failure != "" {
		return errors.New(surface.failure)
	}

	return nil
}

func newPipeline(resolver geocode.Resolver, fetcher routing.Fetcher) *pipeline.Pipeline {
	return pipeline.New(resolver, fetcher, events.DefaultDirectory(), pipeline.Options{
		Zoom:           routeOptions.Zoom,
		RequestTimeout: config.RequestTimeout,
	})
}

var centerCmd = &cobra.Command{
	Use:   "center <label>",
	Short: "Center the map on an event",
	Long: `Resolves the postal code at the end of an event label and prints the
coordinate the map would be centered on.

$ ezpark center "Hershey Park (17033)"
center	40.285900, -76.651400	zoom 13
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := config.newResolver(cmd.Context())
		if err != nil {
			return err
		}

		// Centering never routes, no ORS key needed.
		return runOnce(cmd.Context(), newPipeline(resolver, nil), func(p *pipeline.Pipeline) string {
			return p.CenterOnEvent(args[0])
		})
	},
}

var routeCmd = &cobra.Command{
	Use:   "route <start zip> <destination zip>",
	Short: "Find a driving route between two postal codes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := config.newResolver(cmd.Context())
		if err != nil {
			return err
		}

		fetcher, err := config.newFetcher()
		if err != nil {
			return err
		}

		return runOnce(cmd.Context(), newPipeline(resolver, fetcher), func(p *pipeline.Pipeline) string {
			return p.FindRoute(args[0], args[1])
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{centerCmd, routeCmd} {
		c.Flags().IntVar(&routeOptions.Zoom, "zoom", pipeline.DefaultZoom, "zoom level used when centering")
		rootCmd.AddCommand(c)
	}

	routeCmd.Flags().BoolVar(&routeOptions.ShowPoints, "points", false, "print every point of the route")
}
