package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDateOnlyHour is the clock hour given to readings whose source
// carries a date but no time.
const DefaultDateOnlyHour = 12

// Resolver turns date and time text into a zoned time.
// The zero value resolves in time.Local, month-first, with midnight for
// date-only values; use NewResolver for the usual noon default.
type Resolver struct {
	Location     *time.Location
	DayFirst     bool
	DateOnlyHour int
}

// NewResolver returns a month-first resolver in loc with a noon date-only default.
func NewResolver(loc *time.Location) Resolver {
	return Resolver{Location: loc, DateOnlyHour: DefaultDateOnlyHour}
}

var (
	// Clock layouts, 24-hour first. Input is upper-cased before parsing so
	// "pm" and "PM" both match.
	clockLayouts = []string{
		"15:04:05",
		"15:04",
		"3:04:05 PM",
		"3:04 PM",
		"3:04:05PM",
		"3:04PM",
	}

	// Layouts carrying their own zone offset.
	offsetLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02T15:04:05-0700",
		"2006-01-02 15:04:05 -0700",
	}

	// ISO-style layouts without an offset, resolved in the resolver location.
	isoLocalLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}

	yearFirstDates  = []string{"2006-1-2", "2006/1/2"}
	monthFirstDates = []string{"1/2/2006", "1-2-2006"}
	dayFirstDates   = []string{"2/1/2006", "2-1-2006", "2.1.2006"}
)

// Date-time and date-only layout lists for each ambiguity preference.
var (
	monthFirstDateTimes = buildDateTimeLayouts(false)
	dayFirstDateTimes   = buildDateTimeLayouts(true)
	monthFirstDateOnly  = orderedDates(false)
	dayFirstDateOnly    = orderedDates(true)
)

func orderedDates(dayFirst bool) []string {
	out := append([]string{}, yearFirstDates...)
	if dayFirst {
		out = append(out, dayFirstDates...)
		return append(out, monthFirstDates...)
	}
	out = append(out, monthFirstDates...)
	return append(out, dayFirstDates...)
}

func buildDateTimeLayouts(dayFirst bool) []string {
	layouts := append([]string{}, offsetLayouts...)
	layouts = append(layouts, isoLocalLayouts...)
	for _, d := range orderedDates(dayFirst) {
		for _, c := range clockLayouts {
			layouts = append(layouts, d+" "+c)
		}
	}
	return layouts
}

var (
	fallbackDateRe  = regexp.MustCompile(`(\d{1,4})[/.\-](\d{1,2})[/.\-](\d{1,4})`)
	fallbackClockRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([ap]m)?`)
)

func (r Resolver) loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r Resolver) dateTimeLayouts() []string {
	if r.DayFirst {
		return dayFirstDateTimes
	}
	return monthFirstDateTimes
}

func (r Resolver) dateLayouts() []string {
	if r.DayFirst {
		return dayFirstDateOnly
	}
	return monthFirstDateOnly
}

// ResolveCombined parses text that holds both a date and a time.
// Strategies run in order: full layouts, date-only layouts at DateOnlyHour,
// epoch literals, then regex extraction. It never substitutes the current time.
func (r Resolver) ResolveCombined(text string) (time.Time, bool) {
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return time.Time{}, false
	}
	loc := r.loc()

	for _, layout := range r.dateTimeLayouts() {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, true
		}
	}
	if d, ok := r.parseDateLayouts(text); ok {
		return atClock(d, r.DateOnlyHour, 0, 0, loc), true
	}
	if t, ok := r.parseEpoch(text); ok {
		return t, true
	}
	return r.resolveByRegex(text)
}

// Resolve parses a separate date and time. A valid date with a missing or
// unparseable time resolves to midnight. A date cell that already holds a
// time is resolved as a combined value.
func (r Resolver) Resolve(dateText, timeText string) (time.Time, bool) {
	dateText = strings.TrimSpace(dateText)
	timeText = strings.TrimSpace(timeText)
	if dateText == "" {
		if LooksLikeDateTime(timeText) {
			return r.ResolveCombined(timeText)
		}
		return time.Time{}, false
	}
	if LooksLikeDateTime(dateText) {
		return r.ResolveCombined(dateText)
	}

	d, ok := r.parseDate(strings.ToUpper(dateText))
	if !ok {
		return time.Time{}, false
	}
	loc := r.loc()
	if h, m, s, ok := parseClock(strings.ToUpper(timeText)); ok {
		return atClock(d, h, m, s, loc), true
	}
	return atClock(d, 0, 0, 0, loc), true
}

// parseDate tries the date-only layouts and then regex extraction.
func (r Resolver) parseDate(text string) (time.Time, bool) {
	if d, ok := r.parseDateLayouts(text); ok {
		return d, true
	}
	m := fallbackDateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	y, mo, d, ok := resolveYMD(m[1], m[2], m[3], r.DayFirst)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, r.loc()), true
}

func (r Resolver) parseDateLayouts(text string) (time.Time, bool) {
	for _, layout := range r.dateLayouts() {
		if t, err := time.ParseInLocation(layout, text, r.loc()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseEpoch handles Date(1705887600000) and /Date(1705887600000+0100)/.
func (r Resolver) parseEpoch(text string) (time.Time, bool) {
	// Input was upper-cased; the literal is matched case-sensitively.
	m := epochRe.FindStringSubmatch(strings.Replace(text, "DATE(", "Date(", 1))
	if m == nil {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	t := time.UnixMilli(ms)
	if m[2] != "" {
		if off, err := time.Parse("-0700", m[2]); err == nil {
			_, secs := off.Zone()
			return t.In(time.FixedZone("", secs)), true
		}
	}
	return t.In(r.loc()), true
}

func (r Resolver) resolveByRegex(text string) (time.Time, bool) {
	m := fallbackDateRe.FindStringSubmatchIndex(text)
	if m == nil {
		return time.Time{}, false
	}
	y, mo, d, ok := resolveYMD(text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]], r.DayFirst)
	if !ok {
		return time.Time{}, false
	}
	loc := r.loc()
	date := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)

	rest := text[:m[0]] + " " + text[m[1]:]
	if cm := fallbackClockRe.FindStringSubmatch(rest); cm != nil {
		if h, mi, s, ok := clockFromParts(cm[1], cm[2], cm[3], cm[4]); ok {
			return atClock(date, h, mi, s, loc), true
		}
	}
	return atClock(date, r.DateOnlyHour, 0, 0, loc), true
}

// resolveYMD orders three numeric date groups into year, month, day.
// A four-digit or >31 leading group is the year; otherwise the last group is.
// When both remaining groups could be a month, dayFirst picks the order.
func resolveYMD(a, b, c string, dayFirst bool) (year, month, day int, ok bool) {
	av, _ := strconv.Atoi(a)
	bv, _ := strconv.Atoi(b)
	cv, _ := strconv.Atoi(c)

	switch {
	case len(a) == 4 || av > 31:
		year, month, day = expandYear(a, av), bv, cv
	case len(c) == 3:
		return 0, 0, 0, false
	default:
		year = expandYear(c, cv)
		switch {
		case av > 12 && bv <= 12:
			day, month = av, bv
		case bv > 12 && av <= 12:
			month, day = av, bv
		case av <= 12 && bv <= 12:
			if dayFirst {
				day, month = av, bv
			} else {
				month, day = av, bv
			}
		default:
			return 0, 0, 0, false
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

// expandYear maps two-digit years below 50 to 20xx and the rest to 19xx.
func expandYear(s string, v int) int {
	if len(s) > 2 {
		return v
	}
	if v < 50 {
		return 2000 + v
	}
	return 1900 + v
}

// parseClock parses a standalone clock time.
func parseClock(text string) (hour, minute, second int, ok bool) {
	if text == "" {
		return 0, 0, 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Hour(), t.Minute(), t.Second(), true
		}
	}
	return 0, 0, 0, false
}

func clockFromParts(h, m, s, ampm string) (hour, minute, second int, ok bool) {
	hour, _ = strconv.Atoi(h)
	minute, _ = strconv.Atoi(m)
	if s != "" {
		second, _ = strconv.Atoi(s)
	}
	switch strings.ToUpper(ampm) {
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, 0, 0, false
		}
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 || second > 59 {
		return 0, 0, 0, false
	}
	return hour, minute, second, true
}

func atClock(d time.Time, hour, minute, second int, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, second, 0, loc)
}
