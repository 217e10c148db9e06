// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package events

import "sync"

// SavedEvents is the session-scoped list of events the user chose to keep.
// It is append-only and keeps duplicates. It lives in memory only.
//
// Methods are safe for concurrent use: the HTTP host saves from handler
// goroutines.
type SavedEvents struct {
	mu      sync.Mutex
	entries []Entry
}

// NewSavedEvents returns an empty list.
func NewSavedEvents() *SavedEvents {
	return &SavedEvents{}
}

// Save appends entry. Saving the same event twice stores it twice.
func (s *SavedEvents) Save(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
}

// List returns the saved entries in the order they were saved.
func (s *SavedEvents) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)

	return out
}

// Len returns the number of saved entries.
func (s *SavedEvents) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
