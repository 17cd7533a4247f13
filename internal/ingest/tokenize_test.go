package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	raw := "\ufeffDate,Time,Glucose\r\n\r\n01/15/2024,08:30,112\r   \n01/15/2024,14:00,98\n"

	lines := SplitLines(raw)

	assert.Equal(t, []string{
		"Date,Time,Glucose",
		"01/15/2024,08:30,112",
		"01/15/2024,14:00,98",
	}, lines)
}

func TestSplitLinesEmpty(t *testing.T) {
	assert.Empty(t, SplitLines(""))
	assert.Empty(t, SplitLines("\n \r\n\t\n"))
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected rune
	}{
		{"comma", []string{"a,b,c", "1,2,3"}, ','},
		{"semicolon with decimal commas", []string{"Date;Time;Glucose", "15.01.2024;08:30;6,2"}, ';'},
		{"tab", []string{"a\tb", "1\t2"}, '\t'},
		{"pipe", []string{"a|b", "1|2"}, '|'},
		{"whitespace", []string{"01/15/2024 08:30 112"}, WhitespaceDelimiter},
		{"quoted comma ignored", []string{"\"a,b\";c", "\"1,2\";3"}, ';'},
		{"no lines", nil, WhitespaceDelimiter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDelimiter(tt.lines))
		})
	}
}

func TestSplitRecord(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		delim    rune
		expected []string
	}{
		{"plain", "a,b,c", ',', []string{"a", "b", "c"}},
		{"trims", " a , b ,c ", ',', []string{"a", "b", "c"}},
		{"empty fields", "a,,c,", ',', []string{"a", "", "c", ""}},
		{"quoted delimiter", `"01/15/2024, 08:30",112`, ',', []string{"01/15/2024, 08:30", "112"}},
		{"doubled quote", `"say ""hi""",2`, ',', []string{`say "hi"`, "2"}},
		{"unterminated quote", `"abc,def`, ',', []string{"abc,def"}},
		{"semicolon", "15.01.2024;08:30;6,2", ';', []string{"15.01.2024", "08:30", "6,2"}},
		{"whitespace runs", "  01/15/2024   08:30\t112 ", WhitespaceDelimiter, []string{"01/15/2024", "08:30", "112"}},
		{"whitespace quoted", `"Before Meal" 112`, WhitespaceDelimiter, []string{"Before Meal", "112"}},
		{"whitespace meridiem", "01/15/2024 02:30 PM 112", WhitespaceDelimiter, []string{"01/15/2024", "02:30 PM", "112"}},
		{"whitespace attached meridiem", "01/15/2024 9:15PM pm", WhitespaceDelimiter, []string{"01/15/2024", "9:15PM", "pm"}},
		{"meridiem without time", "PM 112", WhitespaceDelimiter, []string{"PM", "112"}},
		{"comma keeps meridiem field", "02:30,PM,112", ',', []string{"02:30", "PM", "112"}},
		{"empty line", "", ',', []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitRecord(tt.line, tt.delim))
		})
	}
}
