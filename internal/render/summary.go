package render

import (
	"fmt"
	"math"

	"github.com/jwulff/meterimport/internal/bloodsugar"
)

// rangeOrder lists range statuses from lowest to highest.
var rangeOrder = []bloodsugar.RangeStatus{
	bloodsugar.RangeUrgentLow,
	bloodsugar.RangeLow,
	bloodsugar.RangeNormal,
	bloodsugar.RangeHigh,
	bloodsugar.RangeVeryHigh,
}

// Summary aggregates a set of readings.
type Summary struct {
	Count   int
	Mean    float64
	Min     float64
	Max     float64
	ByRange map[bloodsugar.RangeStatus]int
}

// Summarize computes count, mean, extremes, and range distribution.
func Summarize(readings []bloodsugar.Reading) Summary {
	s := Summary{ByRange: make(map[bloodsugar.RangeStatus]int, len(rangeOrder))}
	if len(readings) == 0 {
		return s
	}
	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	total := 0.0
	for _, r := range readings {
		total += r.Value
		s.Min = math.Min(s.Min, r.Value)
		s.Max = math.Max(s.Max, r.Value)
		s.ByRange[bloodsugar.ClassifyRange(r.Value)]++
	}
	s.Count = len(readings)
	s.Mean = total / float64(s.Count)
	return s
}

// Percent returns the share of readings in status, 0-100.
func (s Summary) Percent(status bloodsugar.RangeStatus) float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.ByRange[status]) * 100 / float64(s.Count)
}

// RangeLine formats the range distribution, e.g. "urgentLow 0% low 10% ...".
func (s Summary) RangeLine() string {
	line := ""
	for i, status := range rangeOrder {
		if i > 0 {
			line += "  "
		}
		line += fmt.Sprintf("%s %.0f%%", status, s.Percent(status))
	}
	return line
}

// FormatGlucose formats a mg/dL value in mg/dL or, with mmol set, mmol/L.
func FormatGlucose(mgdl float64, mmol bool) string {
	if mmol {
		return fmt.Sprintf("%.1f mmol/L", bloodsugar.MgdlToMmol(mgdl))
	}
	return fmt.Sprintf("%.0f mg/dL", mgdl)
}
