package sources

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	listingDatePattern = regexp.MustCompile(`(?i)\b(?:sun|mon|tue|wed|thu|fri|sat)[a-z]*\.?,?:?\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})`)
	clockTimePattern   = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m?\b`)
)

var monthsByAbbr = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseListingDate finds a "<weekday> <month> <day>" fragment in text.
// Listing sites carry no year field, so the current year is assumed; a
// result more than 14 days in the past rolls forward one year to handle the
// year boundary.
func ParseListingDate(text string, now time.Time, loc *time.Location) (time.Time, bool) {
	m := listingDatePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	month, ok := monthsByAbbr[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	d := time.Date(now.Year(), month, day, 0, 0, 0, 0, loc)
	if now.Sub(d) > 14*24*time.Hour {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

// ParseClockTime extracts the first "H[:MM] am/pm" fragment from text.
func ParseClockTime(text string) (hour, minute int, ok bool) {
	m := clockTimePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, false
	}
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil || minute > 59 {
			return 0, 0, false
		}
	}

	if strings.EqualFold(m[3], "p") && hour != 12 {
		hour += 12
	}
	if strings.EqualFold(m[3], "a") && hour == 12 {
		hour = 0
	}
	return hour, minute, true
}
