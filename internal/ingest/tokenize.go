package ingest

import (
	"strings"
	"unicode"
)

// WhitespaceDelimiter splits records on runs of spaces and tabs.
const WhitespaceDelimiter = ' '

// delimiterCandidates are tried in order; ties go to the earlier one.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// delimiterSampleLines bounds how much of a file DetectDelimiter reads.
const delimiterSampleLines = 20

// SplitLines splits raw text into non-blank lines in file order.
// A UTF-8 byte order mark and CR/CRLF line endings are handled.
func SplitLines(raw string) []string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// DetectDelimiter picks the field delimiter used by the most lines.
// Delimiters inside quotes are ignored. With no candidate present it
// returns WhitespaceDelimiter.
func DetectDelimiter(lines []string) rune {
	n := len(lines)
	if n > delimiterSampleLines {
		n = delimiterSampleLines
	}

	best, bestLines := rune(WhitespaceDelimiter), 0
	for _, d := range delimiterCandidates {
		count := 0
		for _, line := range lines[:n] {
			if containsUnquoted(line, d) {
				count++
			}
		}
		if count > bestLines {
			best, bestLines = d, count
		}
	}
	return best
}

func containsUnquoted(line string, d rune) bool {
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == d && !inQuotes:
			return true
		}
	}
	return false
}

// SplitRecord splits one line into fields. A double quote toggles quoted
// mode, a delimiter inside quotes is literal, and "" inside quotes is a
// literal quote. Fields are trimmed of surrounding whitespace.
// In whitespace mode an AM/PM field is joined to the clock time before it.
func SplitRecord(line string, delim rune) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		pending  bool
	)
	runes := []rune(line)
	flush := func() {
		fields = append(fields, strings.TrimSpace(field.String()))
		field.Reset()
		pending = false
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
			pending = true
		case inQuotes:
			field.WriteRune(r)
		case delim == WhitespaceDelimiter && unicode.IsSpace(r):
			if pending {
				flush()
			}
		case r == delim:
			flush()
			pending = true
		default:
			field.WriteRune(r)
			pending = true
		}
	}
	if pending || delim != WhitespaceDelimiter {
		flush()
	}
	if delim == WhitespaceDelimiter {
		fields = joinMeridiem(fields)
	}
	return fields
}

// joinMeridiem folds a standalone AM or PM into the preceding time field,
// so "02:30" "PM" becomes "02:30 PM".
func joinMeridiem(fields []string) []string {
	out := fields[:0]
	for _, f := range fields {
		if n := len(out); n > 0 && isMeridiem(f) && LooksLikeTime(out[n-1]) && !hasMeridiem(out[n-1]) {
			out[n-1] += " " + f
			continue
		}
		out = append(out, f)
	}
	return out
}

func isMeridiem(s string) bool {
	return strings.EqualFold(s, "am") || strings.EqualFold(s, "pm")
}

func hasMeridiem(s string) bool {
	u := strings.ToUpper(s)
	return strings.HasSuffix(u, "AM") || strings.HasSuffix(u, "PM")
}
