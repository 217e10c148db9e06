// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

// Package apierr classifies failures of the remote geocoding and routing
// APIs.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies an API error.
type Kind int

const (
	// KindUnknown unclassified failure.
	KindUnknown Kind = iota
	// KindRateLimit the provider throttled us.
	KindRateLimit
	// KindQuotaExceeded quota exhausted or access denied.
	KindQuotaExceeded
	// KindTimeout the call ran past its deadline.
	KindTimeout
	// KindNotFound the provider had no result for the query.
	KindNotFound
	// KindInvalidRequest the request was rejected as malformed.
	KindInvalidRequest
	// KindNetwork the provider could not be reached or is unavailable.
	KindNetwork
	// KindMalformed the response could not be decoded.
	KindMalformed
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindRateLimit:      "rate_limit",
	KindQuotaExceeded:  "quota_exceeded",
	KindTimeout:        "timeout",
	KindNotFound:       "not_found",
	KindInvalidRequest: "invalid_request",
	KindNetwork:        "network",
	KindMalformed:      "malformed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a failure talking to a remote API.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err, as returned by an http.Client or a decoder, into an
// *Error. Errors that already are an *Error are returned untouched.
func Wrap(err error, message string) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	kind := KindNetwork

	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindUnknown
	}

	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return KindUnknown
}

// IsNotFound reports whether the provider had no result.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsRateLimitError reports whether err was caused by throttling.
func IsRateLimitError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsTimeoutError reports whether err was caused by a deadline.
func IsTimeoutError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPStatus maps a non-2xx status code of provider to an *Error.
func ClassifyHTTPStatus(provider string, statusCode int) *Error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return New(KindRateLimit, "%s: rate limit reached", provider)
	case http.StatusForbidden, http.StatusUnauthorized:
		return New(KindQuotaExceeded, "%s: quota exceeded or access denied (status %d)", provider, statusCode)
	case http.StatusBadRequest:
		return New(KindInvalidRequest, "%s: invalid request", provider)
	case http.StatusNotFound:
		return New(KindNotFound, "%s: not found", provider)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return New(KindNetwork, "%s: service unavailable (status %d)", provider, statusCode)
	default:
		return New(KindUnknown, "%s: HTTP error %d", provider, statusCode)
	}
}
