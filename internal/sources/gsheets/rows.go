package gsheets

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/sources"
)

// Column names expected in the header row.
const (
	colName        = "Name"
	colDate        = "Date"
	colLink        = "Link"
	colDescription = "Description"
	colAddress     = "Address"
	colCity        = "City"
	colState       = "State"
)

// Some sheets hide the venue until signup; such cells must not leak into
// the location string handed to the geocoder.
const addressPrivateMarker = "address is private"

// ZipRows pairs the header row's column names with every subsequent row.
// Short rows are padded with empty strings. An absent or empty header row
// means the sheet has no usable data at all.
func ZipRows(headerRow int, values [][]any) ([]map[string]string, error) {
	if len(values) <= headerRow {
		return nil, fmt.Errorf("no data found in Google Sheet")
	}

	headers := make([]string, len(values[headerRow]))
	for i, h := range values[headerRow] {
		headers[i] = strings.TrimSpace(fmt.Sprint(h))
	}

	records := make([]map[string]string, 0, len(values)-headerRow-1)
	for _, row := range values[headerRow+1:] {
		rec := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				rec[h] = strings.TrimSpace(fmt.Sprint(row[i]))
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseRow maps one record to a CmfEvent. Rows missing name, date or link
// are skipped by returning an error; the caller logs and moves on.
func ParseRow(rec map[string]string, now time.Time) (domain.CmfEvent, error) {
	name := rec[colName]
	if name == "" {
		return domain.CmfEvent{}, fmt.Errorf("row has no %s", colName)
	}
	link := rec[colLink]
	if link == "" {
		return domain.CmfEvent{}, fmt.Errorf("row %q has no %s", name, colLink)
	}
	if rec[colDate] == "" {
		return domain.CmfEvent{}, fmt.Errorf("row %q has no %s", name, colDate)
	}

	start, end, err := ParseWhen(rec[colDate], now)
	if err != nil {
		return domain.CmfEvent{}, fmt.Errorf("row %q: %w", name, err)
	}

	desc := rec[colDescription]

	return domain.CmfEvent{
		ID:               IDFromLink(link),
		Name:             name,
		Start:            start,
		End:              end,
		TZ:               domain.TzReinterpretUTCToLocal,
		Location:         JoinAddress(rec[colAddress], rec[colCity], rec[colState]),
		Description:      desc,
		DescriptionURLs:  sources.ExtractURLs(desc),
		OriginalEventURL: link,
	}, nil
}

// JoinAddress builds the location string from non-empty address fields,
// dropping any field that is just a privacy placeholder.
func JoinAddress(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || strings.Contains(strings.ToLower(f), addressPrivateMarker) {
			continue
		}
		parts = append(parts, f)
	}
	return strings.Join(parts, ", ")
}

var whenLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"1/2/2006 3:04 PM", true},
	{"1/2/2006 3:04PM", true},
	{"1/2/2006 3 PM", true},
	{"1/2/2006 3PM", true},
	{"1/2/2006 15:04", true},
	{"2006-01-02 15:04", true},
	{"1/2/2006", false},
	{"2006-01-02", false},
	{"January 2, 2006 3:04 PM", true},
	{"January 2, 2006", false},
}

// ParseWhen parses the sheet's free-text date+time column. A row with a
// known time of day but no duration gets end = start + 1 minute; a
// date-only row gets end = start. Two-digit years are assumed to be in
// now's century.
func ParseWhen(s string, now time.Time) (string, string, error) {
	s = strings.Join(strings.Fields(s), " ")

	for _, l := range whenLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = t.AddDate(now.Year(), 0, 0)
		}
		start := t.UTC()
		end := start
		if l.hasTime {
			end = start.Add(time.Minute)
		}
		return start.Format(time.RFC3339), end.Format(time.RFC3339), nil
	}
	return "", "", fmt.Errorf("unparseable date %q", s)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// IDFromLink derives a stable identifier from the event link.
func IDFromLink(link string) string {
	s := strings.ToLower(link)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = nonSlug.ReplaceAllString(s, "-")
	return "sheet-" + strings.Trim(s, "-")
}
