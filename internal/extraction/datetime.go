package extraction

import (
	"fmt"
	"regexp"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateSource tells how a receipt date was obtained
type DateSource string

const (
	// DateFound means a calendar date was read from the receipt
	DateFound DateSource = "date"
	// DateTimeOnly means only a time of day was read; the date is today
	DateTimeOnly DateSource = "time"
	// DateNow means nothing was read and the date is the extraction time
	DateNow DateSource = "now"
)

// dateScanLines is how many leading lines are searched for a date or time
const dateScanLines = 15

const monthNames = `(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?`

// datePattern pairs a matcher with the layout its canonical form parses under
type datePattern struct {
	name   string
	re     *regexp.Regexp
	layout string
	// canonical rewrites a match into text accepted by layout
	canonical func(m []string) string
}

// datePatterns are tried in order on every line. MM/DD/YYYY and DD/MM/YYYY
// share a matcher; a strict parse rejects month > 12 so DD/MM is only reached
// when the first field cannot be a month.
var datePatterns = []datePattern{
	{
		name:      "MM/DD/YYYY",
		re:        regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		layout:    "1/2/2006",
		canonical: wholeMatch,
	},
	{
		name:      "DD/MM/YYYY",
		re:        regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		layout:    "2/1/2006",
		canonical: wholeMatch,
	},
	{
		name:      "YYYY-MM-DD",
		re:        regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
		layout:    "2006-1-2",
		canonical: wholeMatch,
	},
	{
		name:      "MM/DD/YY",
		re:        regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2}\b`),
		layout:    "1/2/06",
		canonical: wholeMatch,
	},
	{
		name:   "Mon DD, YYYY",
		re:     regexp.MustCompile(`(?i)\b` + monthNames + `\s+(\d{1,2}),?\s+(\d{4})\b`),
		layout: "Jan 2 2006",
		canonical: func(m []string) string {
			return fmt.Sprintf("%s %s %s", monthAbbrev(m[1]), m[2], m[3])
		},
	},
	{
		name:   "DD Mon YYYY",
		re:     regexp.MustCompile(`(?i)\b(\d{1,2})\s+` + monthNames + `,?\s+(\d{4})\b`),
		layout: "Jan 2 2006",
		canonical: func(m []string) string {
			return fmt.Sprintf("%s %s %s", monthAbbrev(m[2]), m[1], m[3])
		},
	},
}

// timePattern is tried in order; the first valid token on a line wins
type timePattern struct {
	re        *regexp.Regexp
	layout    string
	canonical func(m []string) string
}

var timePatterns = []timePattern{
	{
		re:     regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*([AP]M)\b`),
		layout: "3:04PM",
		canonical: func(m []string) string {
			return fmt.Sprintf("%s:%s%s", m[1], m[2], cases.Upper(language.English).String(m[3]))
		},
	},
	{
		re:     regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`),
		layout: "15:04",
		canonical: func(m []string) string {
			return m[1] + ":" + m[2]
		},
	},
}

func wholeMatch(m []string) string { return m[0] }

// monthAbbrev title-cases a month abbreviation. Casers hold state, so one is
// built per call to keep extraction safe for concurrent use.
func monthAbbrev(s string) string {
	return cases.Title(language.English).String(s)
}

// ExtractDateTime finds the transaction date and time of day in the first
// lines of a receipt. It never fails: without a date it uses today with any
// time found, and without either it returns now.
func ExtractDateTime(lines []Line, now time.Time, loc *time.Location) (time.Time, DateSource) {
	if loc == nil {
		loc = time.Local
	}
	lines = head(lines, dateScanLines)

	for _, line := range lines {
		date, ok := findDate(line.Text, loc)
		if !ok {
			continue
		}
		if hour, minute, ok := findTime(line.Text); ok {
			date = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
		}
		return date, DateFound
	}

	for _, line := range lines {
		if hour, minute, ok := findTime(line.Text); ok {
			today := now.In(loc)
			return time.Date(today.Year(), today.Month(), today.Day(), hour, minute, 0, 0, loc), DateTimeOnly
		}
	}

	return now.In(loc), DateNow
}

// findDate returns the first pattern match on the line that parses strictly
func findDate(text string, loc *time.Location) (time.Time, bool) {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		date, err := time.ParseInLocation(p.layout, p.canonical(m), loc)
		if err != nil {
			continue
		}
		return date, true
	}
	return time.Time{}, false
}

// findTime returns the hour and minute of the first valid time token
func findTime(text string) (hour, minute int, ok bool) {
	for _, p := range timePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		t, err := time.Parse(p.layout, p.canonical(m))
		if err != nil {
			continue
		}
		return t.Hour(), t.Minute(), true
	}
	return 0, 0, false
}
