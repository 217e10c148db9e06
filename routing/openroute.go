// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ezpark/ezpark/apierr"
	"github.com/ezpark/ezpark/spatial"
)

const (
	// DefaultOpenRouteURL is the hosted OpenRouteService API.
	DefaultOpenRouteURL = "https://api.openrouteservice.org"

	// DefaultProfile is the routing profile used when none is configured.
	DefaultProfile = "driving-car"

	provider = "openrouteservice"
)

// OpenRouteOptions configures an OpenRoute fetcher.
type OpenRouteOptions struct {
	// APIKey is required
	APIKey string

	// BaseURL of the service, DefaultOpenRouteURL when empty
	BaseURL string

	// Profile such as driving-car or cycling-regular, DefaultProfile when empty
	Profile string

	// Client used for requests
	Client *http.Client
}

// OpenRoute fetches routes from the OpenRouteService directions API.
type OpenRoute struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewOpenRoute creates an OpenRouteService fetcher.
func NewOpenRoute(options OpenRouteOptions) *OpenRoute {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenRouteURL
	}

	profile := options.Profile
	if profile == "" {
		profile = DefaultProfile
	}

	client := options.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &OpenRoute{
		apiKey:     options.APIKey,
		endpoint:   fmt.Sprintf("%s/v2/directions/%s", baseURL, url.PathEscape(profile)),
		httpClient: client,
	}
}

// The GeoJSON response, reduced to what we use. Positions are [lon, lat].
type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// formatLngLat renders a coordinate in the service's lon,lat order.
func formatLngLat(c spatial.Coordinate) string {
	return strconv.FormatFloat(c.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// FetchRoute returns the first route the service proposes.
func (o *OpenRoute) FetchRoute(ctx context.Context, origin, destination spatial.Coordinate) (spatial.RoutePath, error) {
	if o.apiKey == "" {
		return nil, apierr.New(apierr.KindQuotaExceeded, "%s: no API key configured", provider)
	}

	params := url.Values{}
	params.Set("api_key", o.apiKey)
	params.Set("start", formatLngLat(origin))
	params.Set("end", formatLngLat(destination))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apierr.Wrap(err, provider+": building request")
	}

	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, apierr.Wrap(err, provider+": route request failed")
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

		return nil, apierr.ClassifyHTTPStatus(provider, resp.StatusCode)
	}

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		if ctx.Err() != nil {
			return nil, apierr.Wrap(ctx.Err(), provider+": reading response")
		}

		return nil, &apierr.Error{Kind: apierr.KindMalformed, Message: provider + ": decoding response", Err: err}
	}

	if len(dr.Features) == 0 {
		return nil, apierr.New(apierr.KindMalformed, "%s: response has no route features", provider)
	}

	return decodePath(dr.Features[0].Geometry.Coordinates)
}

// decodePath swaps GeoJSON [lon, lat] positions back into coordinates.
func decodePath(positions [][]float64) (spatial.RoutePath, error) {
	if len(positions) == 0 {
		return nil, apierr.New(apierr.KindMalformed, "%s: route geometry is empty", provider)
	}

	path := make(spatial.RoutePath, 0, len(positions))

	for i, pos := range positions {
		// A third element, when present, is the elevation.
		if len(pos) < 2 {
			return nil, apierr.New(apierr.KindMalformed, "%s: position %d has %d values", provider, i, len(pos))
		}

		c := spatial.NewCoordinate(pos[1], pos[0])
		if !c.Valid() {
			return nil, apierr.New(apierr.KindMalformed, "%s: position %d out of range: %v", provider, i, pos)
		}

		path = append(path, c)
	}

	return path, nil
}
