// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode turns postal codes into coordinates.
//
// Providers return the first candidate of the service's own ranking and
// never retry. Failures are *apierr.Error values: KindNotFound when the
// service answered with no candidates, a transport kind otherwise.
package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ezpark/ezpark/apierr"
	"github.com/ezpark/ezpark/spatial"
)

// Resolver resolves a postal code into a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, postalCode string) (spatial.Coordinate, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, postalCode string) (spatial.Coordinate, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, postalCode string) (spatial.Coordinate, error) {
	return f(ctx, postalCode)
}

func checkPostalCode(postalCode string) error {
	if strings.TrimSpace(postalCode) == "" {
		return apierr.New(apierr.KindInvalidRequest, "empty postal code")
	}

	return nil
}

// getJSON performs a GET and decodes a 2xx JSON body into v.
func getJSON(ctx context.Context, client *http.Client, provider, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apierr.Wrap(err, provider+": building request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return apierr.Wrap(err, provider+": geocoding request failed")
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

		return apierr.ClassifyHTTPStatus(provider, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if ctx.Err() != nil {
			return apierr.Wrap(ctx.Err(), provider+": reading response")
		}

		return &apierr.Error{Kind: apierr.KindMalformed, Message: provider + ": decoding response", Err: err}
	}

	return nil
}

// flexFloat decodes a JSON number or a JSON string holding a number.
// Nominatim renders coordinates as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("null coordinate")
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		data = []byte(strings.TrimSpace(s))
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", data, err)
	}

	*f = flexFloat(v)

	return nil
}

func validCoordinate(provider string, c spatial.Coordinate) (spatial.Coordinate, error) {
	if !c.Valid() {
		return spatial.Coordinate{}, apierr.New(apierr.KindMalformed, "%s: coordinate out of range: %v", provider, c)
	}

	return c, nil
}
