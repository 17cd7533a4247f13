package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/jwulff/meterimport/internal/bloodsugar"
)

// DefaultMmolThreshold is the value below which a number is taken as mmol/L.
const DefaultMmolThreshold = 25.0

// Last-resort scanning only accepts values in this mg/dL window.
const (
	lastResortMin = 40.0
	lastResortMax = 400.0
)

// UnitPolicy converts a raw numeric glucose token to mg/dL.
type UnitPolicy func(raw float64) float64

// MmolThresholdPolicy treats values below threshold as mmol/L.
// A true mg/dL reading under the threshold is misread as mmol/L; there is
// no reliable way to tell the two apart from the number alone.
func MmolThresholdPolicy(threshold float64) UnitPolicy {
	return func(raw float64) float64 {
		if raw < threshold {
			return bloodsugar.MmolToMgdl(raw)
		}
		return raw
	}
}

// ExtractValue pulls a number out of a noisy token such as "112 mg/dL"
// or "6.2mmol/L". Everything except digits and '.' is dropped first.
func ExtractValue(token string) (float64, bool) {
	var b strings.Builder
	hasDigit := false
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		}
	}
	if !hasDigit {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// glucoseFromToken extracts, normalizes, and range-checks a glucose token.
func glucoseFromToken(token string, policy UnitPolicy) (float64, bool) {
	raw, ok := ExtractValue(token)
	if !ok {
		return 0, false
	}
	mgdl := policy(raw)
	if !bloodsugar.IsPlausible(mgdl) {
		return 0, false
	}
	return mgdl, true
}
