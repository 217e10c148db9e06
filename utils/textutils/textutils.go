// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils has string normalization helpers.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// ContainsFolded reports whether needle is within haystack once both are folded.
// An empty needle matches everything.
func ContainsFolded(haystack, needle string) bool {
	return strings.Contains(LowerASCIIFolding(haystack), LowerASCIIFolding(needle))
}
