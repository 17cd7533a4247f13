package bloodsugar

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/cockroachdb/errors"
)

// RangeStatus represents the glucose range classification.
type RangeStatus string

const (
	RangeUrgentLow RangeStatus = "urgentLow"
	RangeLow       RangeStatus = "low"
	RangeNormal    RangeStatus = "normal"
	RangeHigh      RangeStatus = "high"
	RangeVeryHigh  RangeStatus = "veryHigh"
)

// Glucose thresholds in mg/dL.
const (
	ThresholdUrgentLow = 55
	ThresholdLow       = 70
	ThresholdHigh      = 180
	ThresholdVeryHigh  = 250
)

// Plausible reading bounds in mg/dL. Anything outside is discarded.
const (
	MinPlausible = 20.0
	MaxPlausible = 600.0
)

// MmolFactor converts mmol/L to mg/dL.
const MmolFactor = 18.0

// MealRelation classifies a reading relative to a meal.
type MealRelation string

const (
	MealUnknown MealRelation = "unknown"
	MealBefore  MealRelation = "beforeMeal"
	MealAfter   MealRelation = "afterMeal"
	MealFasting MealRelation = "fasting"
	MealGeneral MealRelation = "general"
)

// mealKeywords is checked in order; the first hit wins. Prefix keywords
// only match at the start of a word.
var mealKeywords = []struct {
	keyword  string
	relation MealRelation
	prefix   bool
}{
	{"before", MealBefore, false},
	{"pre", MealBefore, true},
	{"after", MealAfter, false},
	{"post", MealAfter, true},
	{"fasting", MealFasting, false},
	{"general", MealGeneral, false},
}

// ParseMealRelation maps a free-text meal annotation to a MealRelation.
func ParseMealRelation(annotation string) MealRelation {
	lower := strings.ToLower(strings.TrimSpace(annotation))
	if lower == "" {
		return MealUnknown
	}
	for _, mk := range mealKeywords {
		if mk.prefix && hasWordPrefix(lower, mk.keyword) {
			return mk.relation
		}
		if !mk.prefix && strings.Contains(lower, mk.keyword) {
			return mk.relation
		}
	}
	return MealUnknown
}

// hasWordPrefix reports whether some word in s starts with prefix.
func hasWordPrefix(s, prefix string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], prefix)
		if j < 0 {
			return false
		}
		j += i
		if j == 0 || !unicode.IsLetter(rune(s[j-1])) {
			return true
		}
		i = j + 1
	}
}

// Reading is a single canonical glucose reading.
// Readings are built with NewReading and treated as immutable afterwards.
type Reading struct {
	Value     float64 // mg/dL
	Timestamp time.Time
	Meal      MealRelation
}

// ErrInvalidReading is returned by NewReading for values or timestamps
// that cannot form a reading.
var ErrInvalidReading = errors.New("invalid reading")

// NewReading validates value and returns a Reading.
// Non-finite values and values outside the plausible range are rejected.
func NewReading(value float64, ts time.Time, meal MealRelation) (Reading, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Reading{}, errors.Wrapf(ErrInvalidReading, "glucose value is not finite: %v", value)
	}
	if !IsPlausible(value) {
		return Reading{}, errors.Wrapf(ErrInvalidReading, "glucose value %.1f outside plausible range %.0f-%.0f mg/dL", value, MinPlausible, MaxPlausible)
	}
	if ts.IsZero() {
		return Reading{}, errors.Wrap(ErrInvalidReading, "reading timestamp is zero")
	}
	if meal == "" {
		meal = MealUnknown
	}
	return Reading{Value: value, Timestamp: ts, Meal: meal}, nil
}

// IsPlausible reports whether a mg/dL value lies in the plausible range.
func IsPlausible(mgdl float64) bool {
	return mgdl >= MinPlausible && mgdl <= MaxPlausible
}

// ClassifyRange determines the range status for a glucose value.
func ClassifyRange(mgdl float64) RangeStatus {
	if mgdl < ThresholdUrgentLow {
		return RangeUrgentLow
	}
	if mgdl < ThresholdLow {
		return RangeLow
	}
	if mgdl <= ThresholdHigh {
		return RangeNormal
	}
	if mgdl <= ThresholdVeryHigh {
		return RangeHigh
	}
	return RangeVeryHigh
}

// MgdlToMmol converts mg/dL to mmol/L, rounded to one decimal.
func MgdlToMmol(mgdl float64) float64 {
	return math.Round(mgdl/18.0182*10) / 10
}

// MmolToMgdl converts mmol/L to mg/dL.
func MmolToMgdl(mmol float64) float64 {
	return mmol * MmolFactor
}
