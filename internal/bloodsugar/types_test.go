package bloodsugar

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRange(t *testing.T) {
	tests := []struct {
		mgdl     float64
		expected RangeStatus
	}{
		{40, RangeUrgentLow},
		{54, RangeUrgentLow},
		{55, RangeLow},
		{69, RangeLow},
		{70, RangeNormal},
		{100, RangeNormal},
		{180, RangeNormal},
		{181, RangeHigh},
		{250, RangeHigh},
		{251, RangeVeryHigh},
		{400, RangeVeryHigh},
	}

	for _, tt := range tests {
		result := ClassifyRange(tt.mgdl)
		if result != tt.expected {
			t.Errorf("ClassifyRange(%.0f) = %s, want %s", tt.mgdl, result, tt.expected)
		}
	}
}

func TestMgdlToMmol(t *testing.T) {
	tests := []struct {
		mgdl     float64
		expected float64
	}{
		{100, 5.5},
		{180, 10.0},
		{70, 3.9},
		{250, 13.9},
	}

	for _, tt := range tests {
		result := MgdlToMmol(tt.mgdl)
		if result != tt.expected {
			t.Errorf("MgdlToMmol(%.0f) = %.1f, want %.1f", tt.mgdl, result, tt.expected)
		}
	}
}

func TestMmolToMgdl(t *testing.T) {
	assert.InDelta(t, 111.6, MmolToMgdl(6.2), 1e-9)
	assert.InDelta(t, 18.0, MmolToMgdl(1), 1e-9)
}

func TestParseMealRelation(t *testing.T) {
	tests := []struct {
		annotation string
		expected   MealRelation
	}{
		{"Before Meal", MealBefore},
		{"pre-breakfast", MealBefore},
		{"After lunch", MealAfter},
		{"Post meal", MealAfter},
		{"FASTING", MealFasting},
		{"general", MealGeneral},
		{"exercise", MealUnknown},
		{"Premeal", MealBefore},
		{"pre meal", MealBefore},
		{"after-postprandial", MealAfter},
		{"(post) dinner", MealAfter},
		{"represent", MealUnknown},
		{"express delivery", MealUnknown},
		{"compost", MealUnknown},
		{"", MealUnknown},
		{"   ", MealUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.annotation, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseMealRelation(tt.annotation))
		})
	}
}

func TestNewReading(t *testing.T) {
	ts := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

	r, err := NewReading(112, ts, "")
	require.NoError(t, err)
	assert.Equal(t, 112.0, r.Value)
	assert.Equal(t, ts, r.Timestamp)
	assert.Equal(t, MealUnknown, r.Meal)

	r, err = NewReading(20, ts, MealFasting)
	require.NoError(t, err)
	assert.Equal(t, MealFasting, r.Meal)

	_, err = NewReading(600, ts, MealUnknown)
	assert.NoError(t, err)
}

func TestNewReadingRejects(t *testing.T) {
	ts := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value float64
		ts    time.Time
	}{
		{"NaN", math.NaN(), ts},
		{"positive infinity", math.Inf(1), ts},
		{"negative infinity", math.Inf(-1), ts},
		{"below range", 19.9, ts},
		{"above range", 600.1, ts},
		{"zero", 0, ts},
		{"zero timestamp", 100, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReading(tt.value, tt.ts, MealUnknown)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidReading)
		})
	}
}
