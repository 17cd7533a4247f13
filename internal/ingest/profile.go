package ingest

import "strings"

// VendorProfile describes how one vendor lays out its export. Every format
// shares one pipeline; the profile only changes header detection, glucose
// column preference, and the clock used for date-only values.
type VendorProfile struct {
	Format VendorFormat

	// HeaderKeywords identify the vendor's header row. A line is the header
	// when it contains at least MinHeaderHits of them.
	HeaderKeywords []string
	MinHeaderHits  int

	// GlucoseHeaders are tried before the generic glucose header words.
	GlucoseHeaders []string
	// AltGlucoseHeaders name a second glucose column used when the first is empty.
	AltGlucoseHeaders []string

	DateOnlyHour int
}

// headerScanLines bounds the search for a header row.
const headerScanLines = 30

// DefaultProfiles returns the built-in profile for every vendor format.
func DefaultProfiles() map[VendorFormat]VendorProfile {
	return map[VendorFormat]VendorProfile{
		FormatAgaMatrix: {
			Format:         FormatAgaMatrix,
			HeaderKeywords: []string{"date", "time", "reading", "glucose", "meal"},
			MinHeaderHits:  2,
			GlucoseHeaders: []string{"reading", "glucose"},
			// AgaMatrix exports have always been read at midnight when no time is given.
			DateOnlyHour: 0,
		},
		FormatFreestyleLibre: {
			Format:            FormatFreestyleLibre,
			HeaderKeywords:    []string{"device timestamp", "record type", "historic glucose", "scan glucose"},
			MinHeaderHits:     2,
			GlucoseHeaders:    []string{"historic glucose"},
			AltGlucoseHeaders: []string{"scan glucose", "strip glucose"},
			DateOnlyHour:      DefaultDateOnlyHour,
		},
		FormatOneTouch: {
			Format:         FormatOneTouch,
			HeaderKeywords: []string{"date", "time", "reading", "result", "meal tag", "unit"},
			MinHeaderHits:  3,
			GlucoseHeaders: []string{"reading", "result"},
			DateOnlyHour:   DefaultDateOnlyHour,
		},
		FormatDexcom: {
			Format:         FormatDexcom,
			HeaderKeywords: []string{"timestamp", "event type", "glucose value", "source device"},
			MinHeaderHits:  2,
			GlucoseHeaders: []string{"glucose value"},
			DateOnlyHour:   DefaultDateOnlyHour,
		},
		FormatContour: {
			Format:         FormatContour,
			HeaderKeywords: []string{"date and time", "reading", "blood glucose", "meal marker", "date", "time"},
			MinHeaderHits:  2,
			GlucoseHeaders: []string{"reading", "blood glucose"},
			DateOnlyHour:   DefaultDateOnlyHour,
		},
		FormatGeneric: {
			Format:       FormatGeneric,
			DateOnlyHour: DefaultDateOnlyHour,
		},
		FormatUnknown: {
			Format:       FormatUnknown,
			DateOnlyHour: DefaultDateOnlyHour,
		},
	}
}

// findHeader returns the index of the first line carrying enough of the
// profile's header keywords.
func (p VendorProfile) findHeader(lines []string) (int, bool) {
	if len(p.HeaderKeywords) == 0 {
		return 0, false
	}
	minHits := p.MinHeaderHits
	if minHits < 1 {
		minHits = 1
	}
	for i, line := range lines {
		if i >= headerScanLines {
			break
		}
		lower := strings.ToLower(line)
		hits := 0
		for _, kw := range p.HeaderKeywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits >= minHits {
			return i, true
		}
	}
	return 0, false
}

func (p VendorProfile) resolveHeader(header []string) ColumnMap {
	return resolveHeader(header, p.GlucoseHeaders, p.AltGlucoseHeaders)
}
