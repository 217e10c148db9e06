// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ezpark/ezpark/apierr"
	"github.com/ezpark/ezpark/spatial"
)

// DefaultGoogleMapsURL is the Google Maps Geocoding endpoint.
const DefaultGoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	endpoint   string
	country    string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder. country is an
// ISO 3166 code; Google ignores three letter codes so "USA" is shortened.
func NewGoogleMapsGeocoder(apiKey, country string, client *http.Client) *GoogleMapsGeocoder {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	switch strings.ToUpper(country) {
	case "", "USA":
		country = "US"
	}

	return &GoogleMapsGeocoder{
		apiKey:     apiKey,
		endpoint:   DefaultGoogleMapsURL,
		country:    country,
		httpClient: client,
	}
}

// WithEndpoint points the geocoder to a different URL.
func (g *GoogleMapsGeocoder) WithEndpoint(endpoint string) *GoogleMapsGeocoder {
	g.endpoint = endpoint

	return g
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location *struct {
				Lat *float64 `json:"lat"`
				Lng *float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Resolve returns the coordinate of the first Google result for postalCode.
func (g *GoogleMapsGeocoder) Resolve(ctx context.Context, postalCode string) (spatial.Coordinate, error) {
	if err := checkPostalCode(postalCode); err != nil {
		return spatial.Coordinate{}, err
	}

	if g.apiKey == "" {
		return spatial.Coordinate{}, apierr.New(apierr.KindQuotaExceeded, "google_maps: no API key configured")
	}

	params := url.Values{}
	params.Set("components", fmt.Sprintf("postal_code:%s|country:%s", strings.TrimSpace(postalCode), g.country))
	params.Set("key", g.apiKey)

	var gmResp googleMapsResponse
	if err := getJSON(ctx, g.httpClient, "google_maps", g.endpoint+"?"+params.Encode(), &gmResp); err != nil {
		return spatial.Coordinate{}, err
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return spatial.Coordinate{}, apierr.New(apierr.KindNotFound, "google_maps: no results found for postal code %s", postalCode)
	case "OVER_QUERY_LIMIT":
		return spatial.Coordinate{}, apierr.New(apierr.KindRateLimit, "google_maps: %s", gmResp.Status)
	case "REQUEST_DENIED":
		return spatial.Coordinate{}, apierr.New(apierr.KindQuotaExceeded, "google_maps: %s %s", gmResp.Status, gmResp.ErrorMessage)
	case "INVALID_REQUEST":
		return spatial.Coordinate{}, apierr.New(apierr.KindInvalidRequest, "google_maps: %s", gmResp.Status)
	default:
		return spatial.Coordinate{}, apierr.New(apierr.KindUnknown, "google_maps status: %s", gmResp.Status)
	}

	if len(gmResp.Results) == 0 {
		return spatial.Coordinate{}, apierr.New(apierr.KindNotFound, "google_maps: no results found for postal code %s", postalCode)
	}

	loc := gmResp.Results[0].Geometry.Location
	if loc == nil || loc.Lat == nil || loc.Lng == nil {
		return spatial.Coordinate{}, apierr.New(apierr.KindMalformed, "google_maps: result for %s has no location", postalCode)
	}

	return validCoordinate("google_maps", spatial.NewCoordinate(*loc.Lat, *loc.Lng))
}
