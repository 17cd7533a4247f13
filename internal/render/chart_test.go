package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwulff/meterimport/internal/bloodsugar"
)

var chartStart = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func at(h int, v float64) ChartPoint {
	return ChartPoint{Timestamp: chartStart.Add(time.Duration(h) * time.Hour).UnixMilli(), Value: v}
}

func TestChartPointSort(t *testing.T) {
	points := []ChartPoint{at(3, 100), at(1, 90), at(2, 95)}

	SortChartPoints(points)

	assert.Equal(t, 90.0, points[0].Value)
	assert.Equal(t, 95.0, points[1].Value)
	assert.Equal(t, 100.0, points[2].Value)
}

func TestNewChartConfig(t *testing.T) {
	cfg := NewChartConfig(64)

	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 15.0, cfg.Padding)
}

func TestChartConfigDefaults(t *testing.T) {
	var cfg ChartConfig
	cfg.ApplyDefaults()

	assert.Equal(t, 48, cfg.Width)
	assert.Equal(t, 15.0, cfg.Padding)
}

func TestPointsFromReadings(t *testing.T) {
	ts := chartStart.Add(time.Hour)
	points := PointsFromReadings([]bloodsugar.Reading{{Value: 112, Timestamp: ts}})

	assert.Equal(t, []ChartPoint{{Timestamp: ts.UnixMilli(), Value: 112}}, points)
}

func TestSparkline(t *testing.T) {
	points := []ChartPoint{at(4, 160), at(0, 80), at(2, 120)}

	line := Sparkline(points, chartStart, chartStart.Add(4*time.Hour), NewChartConfig(5))

	assert.Equal(t, "▂ ▅ ▇", line)
}

func TestSparklineAveragesColumn(t *testing.T) {
	points := []ChartPoint{at(0, 80), at(0, 160), at(4, 120)}

	line := Sparkline(points, chartStart, chartStart.Add(4*time.Hour), NewChartConfig(2))

	// Both columns average to 120.
	runes := []rune(line)
	assert.Len(t, runes, 2)
	assert.Equal(t, runes[0], runes[1])
}

func TestSparklineEmpty(t *testing.T) {
	end := chartStart.Add(4 * time.Hour)

	assert.Empty(t, Sparkline(nil, chartStart, end, NewChartConfig(10)))
	assert.Empty(t, Sparkline([]ChartPoint{at(10, 100)}, chartStart, end, NewChartConfig(10)))
}

func TestSparklineTrimsTrailingGap(t *testing.T) {
	line := Sparkline([]ChartPoint{at(0, 100)}, chartStart, chartStart.Add(4*time.Hour), NewChartConfig(10))

	assert.Len(t, []rune(line), 1)
}

func TestChartDataRange(t *testing.T) {
	minG, maxG := calculateDataRange([]ChartPoint{at(0, 80), at(1, 160)}, 15)

	assert.Less(t, minG, 80.0, "Min should be below lowest glucose")
	assert.Greater(t, maxG, 160.0, "Max should be above highest glucose")
}

func TestChartDataRangeMinimum(t *testing.T) {
	// Very narrow range should be expanded
	minG, maxG := calculateDataRange([]ChartPoint{at(0, 100), at(1, 102)}, 15)

	assert.GreaterOrEqual(t, maxG-minG, 30.0, "Range should be at least 30 mg/dL")
}

func TestChartDataRangeClamped(t *testing.T) {
	minG, maxG := calculateDataRange([]ChartPoint{at(0, 45), at(1, 395)}, 15)

	assert.Equal(t, 40.0, minG)
	assert.Equal(t, 400.0, maxG)
}

func TestTimestampToX(t *testing.T) {
	startMs := chartStart.UnixMilli()
	endMs := chartStart.Add(3 * time.Hour).UnixMilli()

	assert.Equal(t, 0, timestampToX(startMs, startMs, endMs, 64))
	assert.Equal(t, 63, timestampToX(endMs, startMs, endMs, 64))

	mid := timestampToX(chartStart.Add(90*time.Minute).UnixMilli(), startMs, endMs, 64)
	assert.True(t, mid > 25 && mid < 40, "Mid point should be near center")

	assert.Equal(t, 0, timestampToX(startMs, startMs, startMs, 64))
}

func TestGlucoseToLevel(t *testing.T) {
	assert.Equal(t, 0, glucoseToLevel(70, 70, 180, 8))
	assert.Equal(t, 7, glucoseToLevel(180, 70, 180, 8))
	assert.Equal(t, 7, glucoseToLevel(300, 70, 180, 8))
	assert.Equal(t, 4, glucoseToLevel(100, 100, 100, 8))
}
