package ingest

import (
	"strings"
	"time"
	"unicode"

	"github.com/jwulff/meterimport/internal/bloodsugar"
)

// Parser runs the three parsing stages over a file's lines.
// It holds no mutable state and is safe for concurrent use.
type Parser struct {
	resolver Resolver
	unit     UnitPolicy
	now      func() time.Time
}

// NewParser creates a parser. A nil unit policy uses the default mmol/L threshold.
func NewParser(resolver Resolver, unit UnitPolicy) Parser {
	if unit == nil {
		unit = defaultPolicy
	}
	return Parser{resolver: resolver, unit: unit, now: time.Now}
}

// withClock returns a copy of p whose last-resort timestamps count back from now().
func (p Parser) withClock(now func() time.Time) Parser {
	if now != nil {
		p.now = now
	}
	return p
}

// Structured parses delimited data lines using resolved columns. Lines
// lacking a parseable timestamp or a plausible glucose value are skipped.
func (p Parser) Structured(lines []string, cols ColumnMap) []bloodsugar.Reading {
	return p.structured(lines, cols, DetectDelimiter(lines))
}

func (p Parser) structured(lines []string, cols ColumnMap, delim rune) []bloodsugar.Reading {
	if !cols.Usable() {
		return nil
	}
	var readings []bloodsugar.Reading
	for _, line := range lines {
		fields := SplitRecord(line, delim)

		ts, ok := p.timestampFor(fields, cols)
		if !ok {
			continue
		}
		value, ok := glucoseFromToken(cell(fields, cols.Glucose), p.unit)
		if !ok && cols.AltGlucose != NoColumn {
			value, ok = glucoseFromToken(cell(fields, cols.AltGlucose), p.unit)
		}
		if !ok {
			continue
		}
		meal := bloodsugar.MealUnknown
		if cols.MealAnnotation != NoColumn {
			meal = bloodsugar.ParseMealRelation(cell(fields, cols.MealAnnotation))
		}

		r, err := bloodsugar.NewReading(value, ts, meal)
		if err != nil {
			continue
		}
		readings = append(readings, r)
	}
	return readings
}

// timestampFor prefers the combined column and falls back to date plus time.
func (p Parser) timestampFor(fields []string, cols ColumnMap) (time.Time, bool) {
	if cols.CombinedDateTime != NoColumn {
		if ts, ok := p.resolver.ResolveCombined(cell(fields, cols.CombinedDateTime)); ok {
			return ts, true
		}
	}
	if cols.Date != NoColumn {
		return p.resolver.Resolve(cell(fields, cols.Date), cell(fields, cols.Time))
	}
	return time.Time{}, false
}

// Heuristic ignores any column map and classifies each token of each row
// on its own, giving the first match of each role to its token.
func (p Parser) Heuristic(lines []string) []bloodsugar.Reading {
	return p.heuristic(lines, DetectDelimiter(lines))
}

func (p Parser) heuristic(lines []string, delim rune) []bloodsugar.Reading {
	var readings []bloodsugar.Reading
	for _, line := range lines {
		var combined, date, clock, glucose, meal string
		for _, tok := range SplitRecord(line, delim) {
			if tok == "" {
				continue
			}
			switch {
			case combined == "" && date == "" && LooksLikeDateTime(tok):
				combined = tok
			case combined == "" && date == "" && LooksLikeDate(tok):
				date = tok
			case clock == "" && LooksLikeTime(tok):
				clock = tok
			case glucose == "" && isGlucoseCandidate(tok, p.unit):
				glucose = tok
			case meal == "" && bloodsugar.ParseMealRelation(tok) != bloodsugar.MealUnknown:
				meal = tok
			}
		}

		var (
			ts time.Time
			ok bool
		)
		switch {
		case combined != "":
			ts, ok = p.resolver.ResolveCombined(combined)
		case date != "":
			ts, ok = p.resolver.Resolve(date, clock)
		}
		if !ok || glucose == "" {
			continue
		}
		value, ok := glucoseFromToken(glucose, p.unit)
		if !ok {
			continue
		}
		r, err := bloodsugar.NewReading(value, ts, bloodsugar.ParseMealRelation(meal))
		if err != nil {
			continue
		}
		readings = append(readings, r)
	}
	return readings
}

// LastResort accepts any token whose number falls in 40-400 mg/dL and
// gives it a synthetic timestamp: now, then one hour earlier per reading.
// The timestamps carry no information from the file.
func (p Parser) LastResort(lines []string) []bloodsugar.Reading {
	var readings []bloodsugar.Reading
	now := p.now()
	for _, line := range lines {
		for _, tok := range strings.FieldsFunc(line, isScanSeparator) {
			v, ok := ExtractValue(tok)
			if !ok || v < lastResortMin || v > lastResortMax {
				continue
			}
			ts := now.Add(-time.Duration(len(readings)) * time.Hour)
			r, err := bloodsugar.NewReading(v, ts, bloodsugar.MealUnknown)
			if err != nil {
				continue
			}
			readings = append(readings, r)
		}
	}
	return readings
}

func isScanSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(`,;|"'`, r)
}

func cell(fields []string, col int) string {
	if col < 0 || col >= len(fields) {
		return ""
	}
	return fields[col]
}
