// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ezpark/ezpark/apierr"
	"github.com/ezpark/ezpark/spatial"
	"golang.org/x/time/rate"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap instance.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"

	// DefaultCountry scopes postal code searches.
	DefaultCountry = "USA"
)

// NominatimOptions configures a Nominatim resolver.
type NominatimOptions struct {
	// BaseURL of the Nominatim instance, DefaultNominatimURL when empty
	BaseURL string

	// Country every search is scoped to, DefaultCountry when empty
	Country string

	// Client used for requests. It must carry a timeout and an identifying
	// User-Agent, the public instance rejects anonymous clients.
	Client *http.Client

	// RateLimit caps outgoing requests. Zero means one per second, which is
	// the public instance's usage policy. Use rate.Inf to disable.
	RateLimit rate.Limit
}

// Nominatim resolves postal codes with the OpenStreetMap Nominatim API.
type Nominatim struct {
	baseURL    string
	country    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatim creates a new Nominatim resolver.
func NewNominatim(options NominatimOptions) *Nominatim {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}

	country := options.Country
	if country == "" {
		country = DefaultCountry
	}

	client := options.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	limit := options.RateLimit
	if limit == 0 {
		limit = rate.Every(time.Second)
	}

	return &Nominatim{
		baseURL:    baseURL,
		country:    country,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

type nominatimPlace struct {
	Lat         *flexFloat `json:"lat"`
	Lon         *flexFloat `json:"lon"`
	DisplayName string     `json:"display_name"`
}

// Resolve returns the coordinate of the first place Nominatim ranks for
// postalCode.
func (n *Nominatim) Resolve(ctx context.Context, postalCode string) (spatial.Coordinate, error) {
	if err := checkPostalCode(postalCode); err != nil {
		return spatial.Coordinate{}, err
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return spatial.Coordinate{}, limiterError(ctx, err)
	}

	params := url.Values{}
	params.Set("postalcode", strings.TrimSpace(postalCode))
	params.Set("country", n.country)
	params.Set("format", "json")

	var places []nominatimPlace
	if err := getJSON(ctx, n.httpClient, "nominatim", n.baseURL+"/search?"+params.Encode(), &places); err != nil {
		return spatial.Coordinate{}, err
	}

	if len(places) == 0 {
		return spatial.Coordinate{}, apierr.New(apierr.KindNotFound, "nominatim: no results found for postal code %s", postalCode)
	}

	first := places[0]
	if first.Lat == nil || first.Lon == nil {
		return spatial.Coordinate{}, apierr.New(apierr.KindMalformed, "nominatim: candidate for %s has no lat/lon", postalCode)
	}

	return validCoordinate("nominatim", spatial.NewCoordinate(float64(*first.Lat), float64(*first.Lon)))
}

// limiterError classifies a failed limiter wait. The limiter gives up early,
// with an error not wrapping the context's, when the wait would outlast
// the deadline.
func limiterError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return apierr.Wrap(ctx.Err(), "nominatim: waiting for rate limiter")
	}

	if _, ok := ctx.Deadline(); ok {
		return &apierr.Error{Kind: apierr.KindTimeout, Message: "nominatim: rate limit wait exceeds deadline", Err: err}
	}

	return apierr.Wrap(err, "nominatim: waiting for rate limiter")
}
