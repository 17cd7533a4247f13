// Package render formats stored glucose readings for the terminal.
package render

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jwulff/meterimport/internal/bloodsugar"
)

// sparkLevels are the bar glyphs from lowest to highest.
var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// ChartPoint represents a single point on the chart.
type ChartPoint struct {
	Timestamp int64 // Unix milliseconds
	Value     float64
}

// ChartConfig configures the sparkline.
type ChartConfig struct {
	Width   int     // columns
	Padding float64 // mg/dL above/below the data range
}

// NewChartConfig creates a chart config with sensible defaults.
func NewChartConfig(width int) ChartConfig {
	return ChartConfig{Width: width, Padding: 15}
}

// ApplyDefaults applies default values to zero fields.
func (c *ChartConfig) ApplyDefaults() {
	if c.Width <= 0 {
		c.Width = 48
	}
	if c.Padding == 0 {
		c.Padding = 15
	}
}

// PointsFromReadings converts readings to chart points.
func PointsFromReadings(readings []bloodsugar.Reading) []ChartPoint {
	points := make([]ChartPoint, 0, len(readings))
	for _, r := range readings {
		points = append(points, ChartPoint{Timestamp: r.Timestamp.UnixMilli(), Value: r.Value})
	}
	return points
}

// SortChartPoints sorts points by timestamp ascending.
func SortChartPoints(points []ChartPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
}

// Sparkline renders points between start and end as one line of bar glyphs.
// Each column shows the mean of the readings falling into its time slot;
// columns without readings are blank.
func Sparkline(points []ChartPoint, start, end time.Time, cfg ChartConfig) string {
	cfg.ApplyDefaults()

	startMs, endMs := start.UnixMilli(), end.UnixMilli()
	var visible []ChartPoint
	for _, p := range points {
		if p.Timestamp >= startMs && p.Timestamp <= endMs {
			visible = append(visible, p)
		}
	}
	if len(visible) == 0 {
		return ""
	}
	SortChartPoints(visible)

	sums := make([]float64, cfg.Width)
	counts := make([]int, cfg.Width)
	for _, p := range visible {
		x := timestampToX(p.Timestamp, startMs, endMs, cfg.Width)
		sums[x] += p.Value
		counts[x]++
	}

	minGlucose, maxGlucose := calculateDataRange(visible, cfg.Padding)
	var b strings.Builder
	for x := range sums {
		if counts[x] == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(sparkLevels[glucoseToLevel(sums[x]/float64(counts[x]), minGlucose, maxGlucose, len(sparkLevels))])
	}
	return strings.TrimRight(b.String(), " ")
}

// calculateDataRange computes the min/max glucose with padding.
func calculateDataRange(points []ChartPoint, padding float64) (float64, float64) {
	if len(points) == 0 {
		return bloodsugar.ThresholdLow, bloodsugar.ThresholdHigh
	}

	dataMin := points[0].Value
	dataMax := points[0].Value
	for _, p := range points[1:] {
		dataMin = math.Min(dataMin, p.Value)
		dataMax = math.Max(dataMax, p.Value)
	}

	// Ensure minimum range of 30 mg/dL
	const minRange = 30
	extraPadding := 0.0
	if raw := dataMax - dataMin; raw < minRange {
		extraPadding = (minRange - raw) / 2
	}

	minGlucose := math.Max(dataMin-padding-extraPadding, 40)
	maxGlucose := math.Min(dataMax+padding+extraPadding, 400)
	return minGlucose, maxGlucose
}

// timestampToX converts a Unix millisecond timestamp to a column.
func timestampToX(ts, startMs, endMs int64, width int) int {
	timeRange := endMs - startMs
	if timeRange <= 0 {
		return 0
	}
	x := int(math.Round(float64(ts-startMs) / float64(timeRange) * float64(width-1)))
	return min(max(x, 0), width-1)
}

// glucoseToLevel converts a glucose value to a bar level in [0, levels).
func glucoseToLevel(glucose, minGlucose, maxGlucose float64, levels int) int {
	glucoseRange := maxGlucose - minGlucose
	if glucoseRange <= 0 {
		return levels / 2
	}
	glucose = math.Min(math.Max(glucose, minGlucose), maxGlucose)
	return int(math.Round((glucose - minGlucose) / glucoseRange * float64(levels-1)))
}
