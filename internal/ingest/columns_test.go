package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cols(date, tm, combined, glucose, alt, meal int) ColumnMap {
	return ColumnMap{
		Date:             date,
		Time:             tm,
		CombinedDateTime: combined,
		Glucose:          glucose,
		AltGlucose:       alt,
		MealAnnotation:   meal,
	}
}

func TestResolveHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		expected ColumnMap
	}{
		{
			name:     "date time glucose",
			header:   []string{"Date", "Time", "Glucose"},
			expected: cols(0, 1, -1, 2, -1, -1),
		},
		{
			name:     "combined column",
			header:   []string{"Date/Time", "Value", "Meal"},
			expected: cols(-1, -1, 0, 1, -1, 2),
		},
		{
			name:     "timestamp is combined",
			header:   []string{"Index", "Timestamp (YYYY-MM-DDThh:mm:ss)", "Event Type", "Glucose Value (mg/dL)", "Insulin Value (u)"},
			expected: cols(-1, -1, 1, 3, -1, 2),
		},
		{
			name:     "strong glucose word beats value",
			header:   []string{"Value", "Date", "Blood Glucose"},
			expected: cols(1, -1, -1, 2, -1, -1),
		},
		{
			name:     "column is never given two roles",
			header:   []string{"Reading Date", "Reading"},
			expected: cols(0, -1, -1, 1, -1, -1),
		},
		{
			name:     "case insensitive",
			header:   []string{"DATE", "TIME", "READING"},
			expected: cols(0, 1, -1, 2, -1, -1),
		},
		{
			name:     "nothing recognized",
			header:   []string{"foo", "bar"},
			expected: NewColumnMap(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveHeader(tt.header))
		})
	}
}

func TestResolveHeaderWithVendorPreference(t *testing.T) {
	header := []string{"Device", "Serial Number", "Device Timestamp", "Record Type", "Historic Glucose mg/dL", "Scan Glucose mg/dL"}
	profile := DefaultProfiles()[FormatFreestyleLibre]

	got := profile.resolveHeader(header)

	assert.Equal(t, cols(-1, -1, 2, 4, 5, -1), got)
}

func TestResolveSample(t *testing.T) {
	tests := []struct {
		name     string
		row      []string
		expected ColumnMap
	}{
		{
			name:     "date time glucose meal",
			row:      []string{"01/15/2024", "08:30", "112", "Before Meal"},
			expected: cols(0, 1, -1, 2, -1, 3),
		},
		{
			name:     "combined and mmol",
			row:      []string{"2024-01-15T08:30:00", "6.2"},
			expected: cols(-1, -1, 0, 1, -1, -1),
		},
		{
			name:     "index column is not glucose",
			row:      []string{"1", "01/15/2024", "08:30", "112"},
			expected: cols(1, 2, -1, 3, -1, -1),
		},
		{
			name:     "first match wins",
			row:      []string{"01/15/2024", "02/15/2024", "112", "140"},
			expected: cols(0, -1, -1, 2, -1, -1),
		},
		{
			name:     "empty cells skipped",
			row:      []string{"", "01/15/2024 08:30", "", "98 mg/dL"},
			expected: cols(-1, -1, 1, 3, -1, -1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveSample(tt.row))
		})
	}
}

func TestColumnMapWithDefaults(t *testing.T) {
	assert.Equal(t, cols(0, 1, -1, 2, -1, -1), NewColumnMap().WithDefaults(3))
	assert.Equal(t, cols(0, 1, -1, 2, -1, -1), NewColumnMap().WithDefaults(5))

	// Clamped defaults share the last column.
	assert.Equal(t, cols(0, 1, -1, 1, -1, -1), NewColumnMap().WithDefaults(2))
	assert.Equal(t, cols(0, 0, -1, 0, -1, -1), NewColumnMap().WithDefaults(1))

	// Glucose already found in column 0: the date default cannot take it.
	m := NewColumnMap()
	m.Glucose = 0
	assert.Equal(t, cols(-1, 1, -1, 0, -1, -1), m.WithDefaults(2))

	// A usable map is left alone.
	usable := cols(-1, -1, 3, 1, -1, -1)
	assert.Equal(t, usable, usable.WithDefaults(5))

	assert.Equal(t, NewColumnMap(), NewColumnMap().WithDefaults(0))
}

func TestColumnMapMerge(t *testing.T) {
	header := cols(-1, -1, -1, 2, -1, -1)
	sample := cols(0, 1, -1, 2, -1, 3)

	assert.Equal(t, cols(0, 1, -1, 2, -1, 3), header.Merge(sample))

	// A combined column from either side suppresses the separate date.
	combined := cols(-1, -1, 0, -1, -1, -1)
	assert.Equal(t, cols(-1, 1, 0, 2, -1, 3), combined.Merge(sample))
}

func TestColumnMapUsable(t *testing.T) {
	assert.False(t, NewColumnMap().Usable())
	assert.True(t, cols(0, -1, -1, 1, -1, -1).Usable())
	assert.True(t, cols(-1, -1, 0, 1, -1, -1).Usable())
	assert.False(t, cols(0, 1, -1, -1, -1, -1).Usable())
}
