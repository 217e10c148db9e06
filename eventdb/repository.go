// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package eventdb

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/ezpark/ezpark/spatial"
)

// Event is a row of the events table.
type Event struct {
	ID       int64               `json:"id"`
	Name     string              `json:"name"`
	Location string              `json:"location"` // postal code
	Point    *spatial.Coordinate `json:"point,omitempty"`
	H3Cell   int64               `json:"-"`
}

func (e *Event) computeH3() error {
	if e.Point == nil {
		e.H3Cell = 0

		return nil
	}

	cell, err := e.Point.Cell(spatial.DefaultResolution)
	if err != nil {
		return err
	}

	e.H3Cell = cell

	return nil
}

// EventRepository handles persistence of events.
type EventRepository interface {
	// CreateSchema creates the events table
	CreateSchema(ctx context.Context) error

	// SaveEvents inserts events in a single transaction, filling their IDs
	SaveEvents(ctx context.Context, events []*Event) error

	// SaveEventsWithProgress is SaveEvents calling progress after each
	// inserted row. Nothing is committed unless every row is inserted.
	SaveEventsWithProgress(ctx context.Context, events []*Event, progress func(inserted int)) error

	// FetchEventsForLocation returns the events held at location
	FetchEventsForLocation(ctx context.Context, location string) ([]*Event, error)

	// FetchEventsNear returns the events within rings H3 cells of c, closest first
	FetchEventsNear(ctx context.Context, c spatial.Coordinate, rings int) ([]*Event, error)

	// CountEvents returns the total number of events
	CountEvents(ctx context.Context) (int, error)
}

type sqlEventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository. Queries use $n
// placeholders, understood by both duckdb and postgres.
func NewEventRepository(db *sql.DB) EventRepository {
	return &sqlEventRepository{db: db}
}

func (r *sqlEventRepository) CreateSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE SEQUENCE IF NOT EXISTS events_seq START 1;

		CREATE TABLE IF NOT EXISTS events (
			id BIGINT PRIMARY KEY DEFAULT nextval('events_seq'),
			event_name VARCHAR NOT NULL,
			location VARCHAR NOT NULL,
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			h3_cell BIGINT
		);

		CREATE INDEX IF NOT EXISTS events_location_idx ON events(location);
		CREATE INDEX IF NOT EXISTS events_h3_cell_idx ON events(h3_cell);
	`)
	if err != nil {
		return fmt.Errorf("creating events schema: %w", err)
	}

	return nil
}

func (r *sqlEventRepository) SaveEvents(ctx context.Context, events []*Event) error {
	return r.SaveEventsWithProgress(ctx, events, nil)
}

func (r *sqlEventRepository) SaveEventsWithProgress(ctx context.Context, events []*Event, progress func(int)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events(event_name, location, lat, lng, h3_cell)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`)
	if err != nil {
		return errors.Join(err, tx.Rollback())
	}
	defer stmt.Close()

	for i, e := range events {
		if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.Location) == "" {
			return errors.Join(fmt.Errorf("event %+v: name and location are required", e), tx.Rollback())
		}

		if err := e.computeH3(); err != nil {
			return errors.Join(err, tx.Rollback())
		}

		var lat, lng sql.NullFloat64
		var cell sql.NullInt64

		if e.Point != nil {
			lat = sql.NullFloat64{Float64: e.Point.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: e.Point.Lng, Valid: true}
			cell = sql.NullInt64{Int64: e.H3Cell, Valid: true}
		}

		if err := stmt.QueryRowContext(ctx, e.Name, e.Location, lat, lng, cell).Scan(&e.ID); err != nil {
			return errors.Join(fmt.Errorf("inserting event %q: %w", e.Name, err), tx.Rollback())
		}

		if progress != nil {
			progress(i + 1)
		}
	}

	return tx.Commit()
}

const selectEvents = `SELECT id, event_name, location, lat, lng, h3_cell FROM events`

func (r *sqlEventRepository) FetchEventsForLocation(ctx context.Context, location string) ([]*Event, error) {
	rows, err := r.db.QueryContext(ctx, selectEvents+` WHERE location = $1 ORDER BY id`, location)
	if err != nil {
		return nil, fmt.Errorf("querying events for location %q: %w", location, err)
	}

	return scanEvents(rows)
}

func (r *sqlEventRepository) FetchEventsNear(ctx context.Context, c spatial.Coordinate, rings int) ([]*Event, error) {
	if rings < 0 {
		return nil, fmt.Errorf("rings must be positive, got %d", rings)
	}

	cells, err := c.Neighborhood(spatial.DefaultResolution, rings)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(cells))
	args := make([]any, len(cells))

	for i, cell := range cells {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = cell
	}

	query := selectEvents + ` WHERE h3_cell IN (` + strings.Join(placeholders, ", ") + `) ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events near %v: %w", c, err)
	}

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(events, func(a, b *Event) int {
		return cmp.Compare(distanceTo(a, c), distanceTo(b, c))
	})

	return events, nil
}

func (r *sqlEventRepository) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}

	return n, nil
}

func distanceTo(e *Event, c spatial.Coordinate) float64 {
	if e.Point == nil {
		return math.Inf(1)
	}

	return e.Point.HaversineDistance(c)
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	defer rows.Close()

	events := []*Event{}

	for rows.Next() {
		var (
			e        Event
			lat, lng sql.NullFloat64
			cell     sql.NullInt64
		)

		if err := rows.Scan(&e.ID, &e.Name, &e.Location, &lat, &lng, &cell); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		if lat.Valid && lng.Valid {
			e.Point = &spatial.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
			e.H3Cell = cell.Int64
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

// ReadSeed decodes a JSON array of events.
func ReadSeed(r io.Reader) ([]*Event, error) {
	var events []*Event
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("decoding seed: %w", err)
	}

	return events, nil
}
