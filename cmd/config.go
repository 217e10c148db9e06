// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ezpark/ezpark/eventdb"
	"github.com/ezpark/ezpark/geocode"
	"github.com/ezpark/ezpark/routing"
	"github.com/ezpark/ezpark/utils/httputils"
	"github.com/joho/godotenv"
)

// Config holds the settings sourced from the environment. Secrets are only
// ever read from here, never from flags or code.
type Config struct {
	Geocoder     string // nominatim or google
	NominatimURL string
	Country      string

	GoogleMapsAPIKey string
	GoogleKeyName    string // display name of the key looked up through ADC
	GoogleProject    string // fallback project for ADC lookups

	RouteAPIKey  string
	RouteURL     string
	RouteProfile string

	DBDriver string
	DBDSN    string

	GeocodeTimeout time.Duration
	RouteTimeout   time.Duration
	RequestTimeout time.Duration
}

// loadConfig reads the environment, after loading envFile when it exists.
// A missing file is only an error when explicit is set.
func loadConfig(envFile string, explicit bool) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
	}

	cfg := Config{
		Geocoder:         strings.ToLower(envOrDefault("EZPARK_GEOCODER", "nominatim")),
		NominatimURL:     envOrDefault("NOMINATIM_URL", geocode.DefaultNominatimURL),
		Country:          envOrDefault("EZPARK_COUNTRY", geocode.DefaultCountry),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		GoogleKeyName:    envOrDefault("GOOGLE_MAPS_KEY_NAME", "EZPark Geocoding Key"),
		GoogleProject:    os.Getenv("GOOGLE_CLOUD_PROJECT"),
		RouteAPIKey:      os.Getenv("ORS_API_KEY"),
		RouteURL:         envOrDefault("ORS_URL", routing.DefaultOpenRouteURL),
		RouteProfile:     envOrDefault("ORS_PROFILE", routing.DefaultProfile),
		DBDriver:         envOrDefault("EZPARK_DB_DRIVER", eventdb.DriverDuckDB),
		DBDSN:            os.Getenv("EZPARK_DB_DSN"),
	}

	var errs []error

	for _, d := range []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"EZPARK_GEOCODE_TIMEOUT", 10 * time.Second, &cfg.GeocodeTimeout},
		{"EZPARK_ROUTE_TIMEOUT", 30 * time.Second, &cfg.RouteTimeout},
		{"EZPARK_REQUEST_TIMEOUT", 30 * time.Second, &cfg.RequestTimeout},
	} {
		v, err := durationOrDefault(d.key, d.fallback)
		if err != nil {
			errs = append(errs, err)
		}

		*d.dst = v
	}

	switch cfg.Geocoder {
	case "nominatim", "google":
	default:
		errs = append(errs, fmt.Errorf("EZPARK_GEOCODER must be nominatim or google, got %q", cfg.Geocoder))
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}

	return d, nil
}

func (cfg Config) userAgent() string {
	return fmt.Sprintf("ezpark/%s (+https://github.com/ezpark/ezpark)", Version)
}

func (cfg Config) traceWriter() io.Writer {
	if rootOptions.TraceHTTP {
		return os.Stderr
	}

	return nil
}

// newResolver builds the configured geocoder.
func (cfg Config) newResolver(ctx context.Context) (geocode.Resolver, error) {
	client := httputils.NewClient(httputils.ClientOptions{
		UserAgent:   cfg.userAgent(),
		Timeout:     cfg.GeocodeTimeout,
		TraceWriter: cfg.traceWriter(),
		TraceBody:   rootOptions.TraceBody,
	})

	if cfg.Geocoder == "google" {
		apiKey := cfg.GoogleMapsAPIKey
		if apiKey == "" {
			log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

			var err error

			apiKey, err = geocode.KeyFromADC(ctx, cfg.GoogleKeyName, cfg.GoogleProject)
			if err != nil {
				return nil, fmt.Errorf("retrieving Google Maps API key: %w", err)
			}

			log.Println("Retrieved Google Maps API Key via ADC")
		}

		return geocode.NewGoogleMapsGeocoder(apiKey, cfg.Country, client), nil
	}

	return geocode.NewNominatim(geocode.NominatimOptions{
		BaseURL: cfg.NominatimURL,
		Country: cfg.Country,
		Client:  client,
	}), nil
}

// newFetcher builds the route fetcher.
func (cfg Config) newFetcher() (routing.Fetcher, error) {
	if cfg.RouteAPIKey == "" {
		return nil, errors.New("ORS_API_KEY is not set")
	}

	return routing.NewOpenRoute(routing.OpenRouteOptions{
		APIKey:  cfg.RouteAPIKey,
		BaseURL: cfg.RouteURL,
		Profile: cfg.RouteProfile,
		Client: httputils.NewClient(httputils.ClientOptions{
			UserAgent:   cfg.userAgent(),
			Timeout:     cfg.RouteTimeout,
			TraceWriter: cfg.traceWriter(),
			TraceBody:   rootOptions.TraceBody,
		}),
	}), nil
}

// openRepository opens the event database, creating its schema. It
// returns a nil repository when no DSN is configured.
func (cfg Config) openRepository(ctx context.Context) (eventdb.EventRepository, io.Closer, error) {
	if cfg.DBDSN == "" {
		return nil, io.NopCloser(nil), nil
	}

	db, err := eventdb.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}

	repo := eventdb.NewEventRepository(db)
	if err := repo.CreateSchema(ctx); err != nil {
		return nil, nil, errors.Join(err, db.Close())
	}

	return repo, db, nil
}
