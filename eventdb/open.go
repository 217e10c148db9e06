// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventdb is the event database: events held at a location, looked
// up by postal code or by proximity.
package eventdb

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	_ "github.com/lib/pq"              // register postgres driver
)

// Supported drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Open opens the event database. For duckdb the dsn is a file path, empty
// for an in-memory database; for postgres it is a connection string.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverDuckDB, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	return db, nil
}
