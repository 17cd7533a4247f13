package ingest

import (
	"regexp"
	"strings"
)

var (
	dateRe = regexp.MustCompile(`^(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}|\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2})$`)
	timeRe = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}(:\d{2})?(\.\d+)?\s*(am|pm)?$`)

	dateTimeRe = regexp.MustCompile(`(?i)^(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}|\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2})\s+\d{1,2}:\d{2}(:\d{2})?(\.\d+)?\s*(am|pm)?$`)
	isoRe      = regexp.MustCompile(`(?i)^\d{4}-\d{1,2}-\d{1,2}[t ]\d{1,2}:\d{2}(:\d{2}(\.\d+)?)?(z|[+\-]\d{2}:?\d{2})?$`)
	epochRe    = regexp.MustCompile(`^/?Date\((\d+)([+\-]\d{4})?\)/?$`)
)

// LooksLikeDate reports whether token is a bare date such as 01/15/2024 or 2024-01-15.
func LooksLikeDate(token string) bool {
	return dateRe.MatchString(strings.TrimSpace(token))
}

// LooksLikeTime reports whether token is a clock time such as 8:30, 08:30:15 or 2:05 PM.
func LooksLikeTime(token string) bool {
	return timeRe.MatchString(strings.TrimSpace(token))
}

// LooksLikeDateTime reports whether token carries both a date and a time.
func LooksLikeDateTime(token string) bool {
	token = strings.TrimSpace(token)
	return dateTimeRe.MatchString(token) || isoRe.MatchString(token) || epochRe.MatchString(token)
}

// LooksLikeGlucoseValue reports whether token plausibly holds a glucose value,
// either by carrying a unit or by falling in an mg/dL or mmol/L range.
func LooksLikeGlucoseValue(token string) bool {
	token = strings.TrimSpace(token)
	if !strings.ContainsAny(token, "0123456789") {
		return false
	}
	lower := strings.ToLower(token)
	if strings.Contains(lower, "mg") || strings.Contains(lower, "dl") || strings.Contains(lower, "mmol") {
		return true
	}
	v, ok := ExtractValue(token)
	if !ok {
		return false
	}
	return (v >= 20.0 && v <= 600.0) || (v >= 1.0 && v <= 25.0)
}
