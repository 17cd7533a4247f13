package ingest

import (
	"strings"

	"github.com/jwulff/meterimport/internal/bloodsugar"
)

// NoColumn marks a role with no resolved column.
const NoColumn = -1

// ColumnMap holds the resolved column position for each semantic role.
// Build it with NewColumnMap; a zero ColumnMap points every role at column 0.
type ColumnMap struct {
	Date             int
	Time             int
	CombinedDateTime int
	Glucose          int
	AltGlucose       int // used when the Glucose cell is empty or unusable
	MealAnnotation   int
}

// NewColumnMap returns a map with every role unresolved.
func NewColumnMap() ColumnMap {
	return ColumnMap{
		Date:             NoColumn,
		Time:             NoColumn,
		CombinedDateTime: NoColumn,
		Glucose:          NoColumn,
		AltGlucose:       NoColumn,
		MealAnnotation:   NoColumn,
	}
}

// HasTimestamp reports whether a date or combined date-time column is set.
func (c ColumnMap) HasTimestamp() bool {
	return c.Date != NoColumn || c.CombinedDateTime != NoColumn
}

// Usable reports whether the map is enough for structured parsing.
func (c ColumnMap) Usable() bool {
	return c.HasTimestamp() && c.Glucose != NoColumn
}

func (c ColumnMap) roles() []*int {
	return []*int{&c.Date, &c.Time, &c.CombinedDateTime, &c.Glucose, &c.AltGlucose, &c.MealAnnotation}
}

func (c ColumnMap) resolvedCount() int {
	n := 0
	for _, p := range c.roles() {
		if *p != NoColumn {
			n++
		}
	}
	return n
}

func (c ColumnMap) uses(col int) bool {
	for _, p := range c.roles() {
		if *p == col {
			return true
		}
	}
	return false
}

// Merge fills roles unresolved in c from other, skipping columns c already uses.
func (c ColumnMap) Merge(other ColumnMap) ColumnMap {
	out := c
	fill := func(dst *int, src int) {
		if *dst == NoColumn && src != NoColumn && !out.uses(src) {
			*dst = src
		}
	}
	fill(&out.CombinedDateTime, other.CombinedDateTime)
	if out.CombinedDateTime == NoColumn {
		fill(&out.Date, other.Date)
	}
	fill(&out.Time, other.Time)
	fill(&out.Glucose, other.Glucose)
	fill(&out.AltGlucose, other.AltGlucose)
	fill(&out.MealAnnotation, other.MealAnnotation)
	return out
}

// WithDefaults applies positional defaults when the map is still unusable:
// column 0 is the date, 1 the time, 2 the glucose value, each clamped to
// width. Defaults may share a clamped column with each other but never
// land on a column the map already resolved.
func (c ColumnMap) WithDefaults(width int) ColumnMap {
	if c.Usable() || width <= 0 {
		return c
	}
	clamp := func(pos int) int {
		if pos >= width {
			return width - 1
		}
		return pos
	}
	out := c
	assign := func(dst *int, pos int) {
		pos = clamp(pos)
		if *dst == NoColumn && !c.uses(pos) {
			*dst = pos
		}
	}
	if !out.HasTimestamp() {
		assign(&out.Date, 0)
		assign(&out.Time, 1)
	}
	assign(&out.Glucose, 2)
	return out
}

// Header words. Strong glucose words outrank the bare "value".
var (
	defaultGlucoseWords = []string{"glucose", "reading", "bg", "sugar", "result"}
	weakGlucoseWords    = []string{"value"}
	mealWords           = []string{"meal", "event"}
)

// ResolveHeader maps header cell names to roles by case-insensitive substring.
// A cell naming both a date and a time, or a timestamp, is a combined column.
func ResolveHeader(header []string) ColumnMap {
	return resolveHeader(header, nil, nil)
}

// resolveHeader is ResolveHeader with vendor-preferred glucose header words
// tried before the defaults, and optional alternate glucose words.
func resolveHeader(header []string, preferGlucose, altGlucose []string) ColumnMap {
	cols := NewColumnMap()
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for i, cell := range lower {
		hasDate := strings.Contains(cell, "date")
		hasTime := strings.Contains(cell, "time")
		switch {
		case strings.Contains(cell, "timestamp") || (hasDate && hasTime):
			if cols.CombinedDateTime == NoColumn {
				cols.CombinedDateTime = i
			}
		case hasDate:
			if cols.Date == NoColumn {
				cols.Date = i
			}
		case hasTime:
			if cols.Time == NoColumn {
				cols.Time = i
			}
		}
	}

	firstUnused := func(words []string) int {
		for _, w := range words {
			for i, cell := range lower {
				if strings.Contains(cell, w) && !cols.uses(i) {
					return i
				}
			}
		}
		return NoColumn
	}

	cols.Glucose = firstUnused(preferGlucose)
	if cols.Glucose == NoColumn {
		cols.Glucose = firstUnused(defaultGlucoseWords)
	}
	if cols.Glucose == NoColumn {
		cols.Glucose = firstUnused(weakGlucoseWords)
	}
	cols.AltGlucose = firstUnused(altGlucose)
	cols.MealAnnotation = firstUnused(mealWords)
	return cols
}

// ResolveSample assigns roles from the content of a representative data row.
func ResolveSample(row []string) ColumnMap {
	return resolveSample(row, defaultPolicy)
}

func resolveSample(row []string, policy UnitPolicy) ColumnMap {
	cols := NewColumnMap()
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		switch {
		case LooksLikeDateTime(cell):
			if cols.CombinedDateTime == NoColumn && cols.Date == NoColumn {
				cols.CombinedDateTime = i
			}
		case LooksLikeDate(cell):
			if cols.Date == NoColumn && cols.CombinedDateTime == NoColumn {
				cols.Date = i
			}
		case LooksLikeTime(cell):
			if cols.Time == NoColumn {
				cols.Time = i
			}
		case isGlucoseCandidate(cell, policy):
			if cols.Glucose == NoColumn {
				cols.Glucose = i
			}
		case bloodsugar.ParseMealRelation(cell) != bloodsugar.MealUnknown:
			if cols.MealAnnotation == NoColumn {
				cols.MealAnnotation = i
			}
		}
	}
	return cols
}

var defaultPolicy = MmolThresholdPolicy(DefaultMmolThreshold)

// isGlucoseCandidate requires the token to look like a glucose value and
// to survive unit normalization inside the plausible range.
func isGlucoseCandidate(token string, policy UnitPolicy) bool {
	if !LooksLikeGlucoseValue(token) {
		return false
	}
	_, ok := glucoseFromToken(token, policy)
	return ok
}
