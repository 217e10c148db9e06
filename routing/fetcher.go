// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

// Package routing fetches driving routes between two coordinates.
package routing

import (
	"context"

	"github.com/ezpark/ezpark/spatial"
)

// Fetcher returns the path between origin and destination in travel order.
// A returned path is never empty; every failure is an *apierr.Error.
type Fetcher interface {
	FetchRoute(ctx context.Context, origin, destination spatial.Coordinate) (spatial.RoutePath, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, origin, destination spatial.Coordinate) (spatial.RoutePath, error)

// FetchRoute calls f.
func (f FetcherFunc) FetchRoute(ctx context.Context, origin, destination spatial.Coordinate) (spatial.RoutePath, error) {
	return f(ctx, origin, destination)
}
