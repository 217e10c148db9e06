// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ezpark/ezpark/eventdb"
	"github.com/ezpark/ezpark/geocode"
	"github.com/ezpark/ezpark/routing"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"EZPARK_GEOCODER", "NOMINATIM_URL", "EZPARK_COUNTRY", "ORS_URL", "ORS_PROFILE",
		"EZPARK_DB_DRIVER", "EZPARK_DB_DSN", "EZPARK_GEOCODE_TIMEOUT", "EZPARK_ROUTE_TIMEOUT",
		"EZPARK_REQUEST_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := loadConfig("", false)
	require.NoError(t, err)

	assert.Equal(t, "nominatim", cfg.Geocoder)
	assert.Equal(t, geocode.DefaultNominatimURL, cfg.NominatimURL)
	assert.Equal(t, geocode.DefaultCountry, cfg.Country)
	assert.Equal(t, routing.DefaultOpenRouteURL, cfg.RouteURL)
	assert.Equal(t, routing.DefaultProfile, cfg.RouteProfile)
	assert.Equal(t, eventdb.DriverDuckDB, cfg.DBDriver)
	assert.Equal(t, 10*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 30*time.Second, cfg.RouteTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadConfigEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EZPARK_ROUTE_TIMEOUT=12s\n"), 0o600))

	// godotenv never overrides variables already set, so start from a
	// clean slate and unset afterwards.
	os.Unsetenv("EZPARK_ROUTE_TIMEOUT")
	t.Cleanup(func() {
		os.Unsetenv("EZPARK_ROUTE_TIMEOUT")
	})

	cfg, err := loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, cfg.RouteTimeout)
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.env")

	_, err := loadConfig(missing, false)
	require.NoError(t, err, "the default .env is optional")

	_, err = loadConfig(missing, true)
	require.Error(t, err, "an explicit --env-file must exist")
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("EZPARK_GEOCODER", "bing")
	t.Setenv("EZPARK_GEOCODE_TIMEOUT", "soon")

	_, err := loadConfig("", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EZPARK_GEOCODER")
	assert.Contains(t, err.Error(), "EZPARK_GEOCODE_TIMEOUT")
}

func TestNewFetcherRequiresKey(t *testing.T) {
	_, err := Config{}.newFetcher()
	require.Error(t, err)

	f, err := Config{RouteAPIKey: "k", RouteTimeout: time.Second}.newFetcher()
	require.NoError(t, err)
	assert.NotNil(t, f)
}

func TestNewResolverGoogleWithKey(t *testing.T) {
	r, err := Config{Geocoder: "google", GoogleMapsAPIKey: "k", Country: "USA"}.newResolver(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &geocode.GoogleMapsGeocoder{}, r)

	r, err = Config{Geocoder: "nominatim"}.newResolver(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &geocode.Nominatim{}, r)
}

func TestOpenRepositoryWithoutDSN(t *testing.T) {
	repo, closer, err := Config{}.openRepository(context.Background())
	require.NoError(t, err)
	assert.Nil(t, repo)
	assert.NoError(t, closer.Close())
}

func TestSeedDatabase(t *testing.T) {
	config = Config{DBDriver: eventdb.DriverDuckDB, DBDSN: filepath.Join(t.TempDir(), "ezpark.duckdb")}
	t.Cleanup(func() { config = Config{} })

	require.NoError(t, seedDatabase(context.Background(), "testdata/seed.json"))

	repo, closer, err := config.openRepository(context.Background())
	require.NoError(t, err)
	defer closer.Close()

	evts, err := repo.FetchEventsForLocation(context.Background(), "16802")
	require.NoError(t, err)
	assert.Len(t, evts, 3)

	n, err := repo.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestSeedDatabaseIsAtomic(t *testing.T) {
	dir := t.TempDir()
	config = Config{DBDriver: eventdb.DriverDuckDB, DBDSN: filepath.Join(dir, "ezpark.duckdb")}
	t.Cleanup(func() { config = Config{} })

	seed := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[
		{"name": "Beaver Stadium Game Day", "location": "16802"},
		{"name": "Bryce Jordan Center Show", "location": "16802"},
		{"name": "", "location": "15106"}
	]`), 0o600))

	require.Error(t, seedDatabase(context.Background(), seed))

	repo, closer, err := config.openRepository(context.Background())
	require.NoError(t, err)
	defer closer.Close()

	n, err := repo.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeedFileIsRequired(t *testing.T) {
	cmd := newSeedCmd()
	assert.Equal(t, []string{"true"}, cmd.Flags().Lookup("file").Annotations[cobra.BashCompOneRequiredFlag])
}

func TestTerminalSurface(t *testing.T) {
	var out bytes.Buffer

	stops := 0
	s := &terminalSurface{w: &out, points: true, stop: func() { stops++ }}

	s.CenterView(40.2859, -76.6514, 13)
	s.PlotPath([][2]float64{{40.0, -76.0}, {40.5, -76.5}})
	s.ShowError("start location not found")

	assert.Equal(t, 3, stops)
	assert.Equal(t, "start location not found", s.failure)
	assert.Contains(t, out.String(), "center\t40.285900, -76.651400\tzoom 13\n")
	assert.Contains(t, out.String(), "route\t2 points\tfrom 40.000000, -76.000000 to 40.500000, -76.500000\n")
	assert.Contains(t, out.String(), "40.500000\t-76.500000\n")
}
