// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import "github.com/ezpark/ezpark/spatial"

// Command is a mutation of the presentation surface. Workers produce
// commands; only the goroutine running Pipeline.Drain applies them.
//
// The concrete types are CenterMap, DrawPath and ShowError.
type Command interface {
	// RequestID identifies the request that produced the command.
	RequestID() string

	isCommand()
}

// CenterMap centers the map on a coordinate.
type CenterMap struct {
	Request string             `json:"request"`
	Center  spatial.Coordinate `json:"center"`
	Zoom    int                `json:"zoom"`
}

// DrawPath draws a route.
type DrawPath struct {
	Request string            `json:"request"`
	Path    spatial.RoutePath `json:"path"`
}

// ShowError notifies the user of a failure.
type ShowError struct {
	Request string     `json:"request"`
	Err     *UserError `json:"-"`
}

func (c CenterMap) RequestID() string { return c.Request }
func (c DrawPath) RequestID() string  { return c.Request }
func (c ShowError) RequestID() string { return c.Request }

func (CenterMap) isCommand() {}
func (DrawPath) isCommand()  {}
func (ShowError) isCommand() {}

// Surface is the map widget. Its methods are only ever called from the
// goroutine running Pipeline.Drain.
type Surface interface {
	CenterView(lat, lon float64, zoom int)
	PlotPath(path [][2]float64)
	ShowError(message string)
}

// Apply performs cmd on s.
func Apply(s Surface, cmd Command) {
	switch c := cmd.(type) {
	case CenterMap:
		s.CenterView(c.Center.Lat, c.Center.Lng, c.Zoom)
	case DrawPath:
		s.PlotPath(c.Path.LatLngs())
	case ShowError:
		s.ShowError(c.Err.Message)
	}
}
