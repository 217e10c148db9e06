// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import "fmt"

// ErrorKind classifies a UserError.
type ErrorKind int

const (
	// KindInternal unexpected failure, a recovered panic included.
	KindInternal ErrorKind = iota
	// KindInput a required field is missing.
	KindInput
	// KindInvalidLabel the event label has no postal code.
	KindInvalidLabel
	// KindNotFound geocoding yielded no candidates.
	KindNotFound
	// KindTransport a remote call failed.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindInput:
		return "input"
	case KindInvalidLabel:
		return "invalid_label"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// User facing messages.
const (
	MsgInvalidEventZip   = "invalid zip code for event"
	MsgLocationNotFound  = "could not find location for zip code %s"
	MsgMissingZipCodes   = "please enter both zip codes"
	MsgStartNotFound     = "start location not found"
	MsgDestNotFound      = "destination location not found"
	MsgRouteFetchFailed  = "error fetching route data"
	MsgRouteFailed       = "error finding route"
	MsgCenterEventFailed = "error finding location"
)

// UserError is a failure meant to be shown to the user. Message is what
// the user sees; Kind and the wrapped error are for logs and tests.
type UserError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func userError(kind ErrorKind, message string, err error) *UserError {
	return &UserError{Kind: kind, Message: message, Err: err}
}
