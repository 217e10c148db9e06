// Copyright 2026 The EZPark Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostalCodeOf(t *testing.T) {
	tests := []struct {
		label   string
		want    string
		wantErr bool
	}{
		{label: "Hershey Park (17033)", want: "17033"},
		{label: "Penn State (16802) ", want: "16802"},
		{label: "Event (A) at (94103)", want: "94103"},
		{label: "No Zip Event", wantErr: true},
		{label: "Short (1703)", wantErr: true},
		{label: "Long (170330)", wantErr: true},
		{label: "(17033) Not Trailing", wantErr: true},
		{label: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := PostalCodeOf(tt.label)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidLabel))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultDirectory(t *testing.T) {
	d := DefaultDirectory()

	want := []Entry{
		{Label: "Hershey Park (17033)", PostalCode: "17033"},
		{Label: "Penn State (16802)", PostalCode: "16802"},
		{Label: "Pittsburgh (15106)", PostalCode: "15106"},
	}
	if diff := cmp.Diff(want, d.ListAvailable()); diff != "" {
		t.Errorf("ListAvailable() mismatch (-want +got):\n%s", diff)
	}

	// Callers can't mutate the catalog.
	list := d.ListAvailable()
	list[0].Label = "changed"
	assert.Equal(t, "Hershey Park (17033)", d.ListAvailable()[0].Label)
}

func TestNewDirectoryRejectsInvalidLabels(t *testing.T) {
	_, err := NewDirectory([]string{"Hershey Park (17033)", "No Zip Event"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidLabel))

	_, err = NewDirectory([]string{"Hershey Park (17033)", "Hershey Park (17033)"})
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	d := DefaultDirectory()

	e, ok := d.Lookup("Penn State (16802)")
	require.True(t, ok)
	assert.Equal(t, "16802", e.PostalCode)

	_, ok = d.Lookup("Penn State")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	d, err := NewDirectory([]string{"Hershey Park (17033)", "Café Penn (16802)", "Pittsburgh (15106)"})
	require.NoError(t, err)

	got := d.Search("PENN")
	require.Len(t, got, 1)
	assert.Equal(t, "Café Penn (16802)", got[0].Label)

	assert.Len(t, d.Search("cafe"), 1)
	assert.Len(t, d.Search(""), 3)
	assert.Empty(t, d.Search("philadelphia"))
}

func TestSavedEventsKeepsDuplicates(t *testing.T) {
	s := NewSavedEvents()
	assert.Empty(t, s.List())

	e, err := NewEntry("Hershey Park (17033)")
	require.NoError(t, err)

	s.Save(e)
	s.Save(e)

	assert.Equal(t, []Entry{e, e}, s.List())
	assert.Equal(t, 2, s.Len())
}

func TestSavedEventsOrder(t *testing.T) {
	s := NewSavedEvents()
	d := DefaultDirectory()

	for i := len(d.ListAvailable()) - 1; i >= 0; i-- {
		s.Save(d.ListAvailable()[i])
	}

	got := s.List()
	require.Len(t, got, 3)
	assert.Equal(t, "Pittsburgh (15106)", got[0].Label)
	assert.Equal(t, "Hershey Park (17033)", got[2].Label)
}

func TestSavedEventsConcurrentSave(t *testing.T) {
	s := NewSavedEvents()
	e := Entry{Label: "Pittsburgh (15106)", PostalCode: "15106"}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			s.Save(e)
		}()
	}

	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
