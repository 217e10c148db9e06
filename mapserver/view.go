// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package mapserver

import (
	"sync"

	"github.com/ezpark/ezpark/spatial"
)

// ViewState is what the browser map should display.
type ViewState struct {
	Version int64               `json:"version"`
	Center  *spatial.Coordinate `json:"center,omitempty"`
	Zoom    int                 `json:"zoom,omitempty"`
	Path    [][2]float64        `json:"path,omitempty"` // [lat, lon] pairs
	Error   string              `json:"error,omitempty"`
}

// viewSurface is a pipeline.Surface recording the map state for pollers.
// The pipeline's drain goroutine writes it, HTTP handlers read it.
type viewSurface struct {
	mu    sync.RWMutex
	state ViewState
}

func (v *viewSurface) CenterView(lat, lon float64, zoom int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	c := spatial.NewCoordinate(lat, lon)
	v.state.Center = &c
	v.state.Zoom = zoom
	v.state.Error = ""
	v.state.Version++
}

func (v *viewSurface) PlotPath(path [][2]float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state.Path = path
	v.state.Error = ""
	v.state.Version++
}

func (v *viewSurface) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state.Error = message
	v.state.Version++
}

func (v *viewSurface) Snapshot() ViewState {
	v.mu.RLock()
	defer v.mu.RUnlock()

	s := v.state
	if s.Path != nil {
		s.Path = append([][2]float64(nil), s.Path...)
	}

	return s
}
