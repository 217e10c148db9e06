// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the coordinate and path value types shared by the
// geocoding, routing and storage layers.
package spatial

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

const earthRadius = 6371e3 // meters

// DefaultResolution is the H3 resolution used to bucket event locations.
// Cells at resolution 7 are roughly 5 km² which is about the size of a
// suburban postal code.
const DefaultResolution = 7

// Coordinate is a geographical point in degrees. Coordinates are values;
// nothing in this module mutates one after creation.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinate builds a coordinate from latitude and longitude.
func NewCoordinate(lat, lng float64) Coordinate {
	return Coordinate{Lat: lat, Lng: lng}
}

// String returns a WKT representation. WKT uses x/y order, so longitude
// goes first.
func (c Coordinate) String() string {
	return fmt.Sprintf("POINT(%f %f)", c.Lng, c.Lat)
}

// Valid reports whether the coordinate is inside the WGS84 range.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) &&
		c.Lat >= -90 && c.Lat <= 90 &&
		c.Lng >= -180 && c.Lng <= 180
}

// LngLat returns the pair in the [lon, lat] order used by GeoJSON services.
func (c Coordinate) LngLat() [2]float64 {
	return [2]float64{c.Lng, c.Lat}
}

// LatLng returns the pair in [lat, lon] order, as map widgets expect it.
func (c Coordinate) LatLng() [2]float64 {
	return [2]float64{c.Lat, c.Lng}
}

// Value implements the driver.Valuer interface for database serialization.
func (c Coordinate) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (c *Coordinate) Scan(value interface{}) error {
	if value == nil {
		c.Lat, c.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		return c.scanWKT(string(v))
	case string:
		return c.scanWKT(v)
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		c.Lng = x
		c.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Coordinate scan: %T", value)
	}
}

func (c *Coordinate) scanWKT(s string) error {
	// DuckDB renders "POINT (lng lat)", our own Value omits the space.
	if _, err := fmt.Sscanf(s, "POINT (%f %f)", &c.Lng, &c.Lat); err == nil {
		return nil
	}

	_, err := fmt.Sscanf(s, "POINT(%f %f)", &c.Lng, &c.Lat)

	return err
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (c Coordinate) HaversineDistance(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	cc := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * cc
}

// Cell returns the H3 cell containing the coordinate at the given resolution.
func (c Coordinate) Cell(res int) (int64, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	return int64(cell), nil
}

// Neighborhood returns the H3 cells within rings steps of the coordinate's
// cell, the cell itself included.
func (c Coordinate) Neighborhood(res, rings int) ([]int64, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lng), res)
	if err != nil {
		return nil, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	disk, err := h3.GridDisk(cell, rings)
	if err != nil {
		return nil, fmt.Errorf("computing grid disk of %d rings: %w", rings, err)
	}

	cells := make([]int64, 0, len(disk))
	for _, d := range disk {
		cells = append(cells, int64(d))
	}

	return cells, nil
}

// RoutePath is an ordered sequence of coordinates in travel order.
type RoutePath []Coordinate

// Length returns the length of the path in meters, summing the great circle
// distance of each leg.
func (p RoutePath) Length() float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += p[i-1].HaversineDistance(p[i])
	}

	return total
}

// LatLngs returns the path as [lat, lon] pairs.
func (p RoutePath) LatLngs() [][2]float64 {
	out := make([][2]float64, len(p))
	for i, c := range p {
		out[i] = c.LatLng()
	}

	return out
}
