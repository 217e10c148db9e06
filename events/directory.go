// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

// Package events holds the catalog of events a user can browse and the
// list of events saved during a session.
package events

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ezpark/ezpark/utils/textutils"
)

// ErrInvalidLabel is returned when a label has no trailing "(DDDDD)".
var ErrInvalidLabel = errors.New("event label has no postal code")

// labelPostalCode matches the postal code embedded at the end of a label,
// as in "Hershey Park (17033)".
var labelPostalCode = regexp.MustCompile(`\((\d{5})\)\s*$`)

// Entry is an event as displayed to the user.
type Entry struct {
	Label      string `json:"label"`
	PostalCode string `json:"postal_code"`
}

// NewEntry builds an entry from its label, extracting the postal code.
func NewEntry(label string) (Entry, error) {
	pc, err := PostalCodeOf(label)
	if err != nil {
		return Entry{}, err
	}

	return Entry{Label: label, PostalCode: pc}, nil
}

// PostalCodeOf extracts the trailing 5-digit parenthetical of label.
func PostalCodeOf(label string) (string, error) {
	m := labelPostalCode.FindStringSubmatch(label)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	return m[1], nil
}

// DefaultLabels is the catalog shipped with the application.
var DefaultLabels = []string{
	"Hershey Park (17033)",
	"Penn State (16802)",
	"Pittsburgh (15106)",
}

// Directory is a static, ordered catalog of events. It is immutable once
// built and safe for concurrent use.
type Directory struct {
	entries []Entry
	byLabel map[string]int
}

// NewDirectory builds a directory from labels, keeping their order. Every
// label must end in "(DDDDD)"; duplicates are rejected.
func NewDirectory(labels []string) (*Directory, error) {
	d := &Directory{
		entries: make([]Entry, 0, len(labels)),
		byLabel: make(map[string]int, len(labels)),
	}

	var errs []error

	for _, label := range labels {
		label = strings.TrimSpace(label)

		e, err := NewEntry(label)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		if _, dup := d.byLabel[label]; dup {
			errs = append(errs, fmt.Errorf("duplicated event label %q", label))

			continue
		}

		d.byLabel[label] = len(d.entries)
		d.entries = append(d.entries, e)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return d, nil
}

// DefaultDirectory returns the directory of DefaultLabels.
func DefaultDirectory() *Directory {
	d, err := NewDirectory(DefaultLabels)
	if err != nil {
		panic(err)
	}

	return d
}

// ListAvailable returns the catalog in its fixed order.
func (d *Directory) ListAvailable() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)

	return out
}

// PostalCodeOf extracts the postal code of label. The label does not need
// to be in the catalog.
func (d *Directory) PostalCodeOf(label string) (string, error) {
	return PostalCodeOf(label)
}

// Lookup finds the catalog entry with exactly this label.
func (d *Directory) Lookup(label string) (Entry, bool) {
	i, ok := d.byLabel[strings.TrimSpace(label)]
	if !ok {
		return Entry{}, false
	}

	return d.entries[i], true
}

// Search returns the entries whose label contains query, ignoring case and
// accents, in catalog order.
func (d *Directory) Search(query string) []Entry {
	out := []Entry{}

	for _, e := range d.entries {
		if textutils.ContainsFolded(e.Label, query) {
			out = append(out, e)
		}
	}

	return out
}
