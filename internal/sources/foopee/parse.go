package foopee

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/sources"
)

const (
	fallbackTitle = "Punk Show"
	venueSuffix   = ", CA, USA"
	defaultHour   = 20
)

// legend maps the list's shorthand symbols to the explanation appended
// inline wherever the symbol appears in a description.
var legend = []struct{ symbol, meaning string }{
	{"a/a", "a/a [all ages]"},
	{"#", "# [will probably sell out]"},
	{"$", "$ [no ins/outs]"},
	{"*", "* [pit warning]"},
	{"^", "^ [under 21 must buy drink ticket]"},
	{"@", "@ [no alcohol]"},
}

// crawl is the per-FetchEvents scratch state: visited pages, the running
// current-date, accumulated events and the id de-duplication counters.
type crawl struct {
	log     *slog.Logger
	now     time.Time
	visited map[string]bool

	currentDate time.Time
	rowIndex    int

	events []domain.CmfEvent
	seen   map[string]int
}

func newCrawl(log *slog.Logger, now time.Time) *crawl {
	return &crawl{
		log:     log,
		now:     now,
		visited: make(map[string]bool),
		events:  make([]domain.CmfEvent, 0),
		seen:    make(map[string]int),
	}
}

// parsePage walks every list item in document order. An item matching the
// weekday+month+day pattern updates the running date; any other item with
// at least one anchor is an event under that date.
func (c *crawl) parsePage(doc *goquery.Document) {
	c.currentDate = time.Time{}
	c.rowIndex = 0

	doc.Find("li").Each(func(i int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())

		if d, ok := sources.ParseListingDate(text, c.now, time.UTC); ok && li.Find("a").Length() == 0 {
			c.currentDate = d
			c.rowIndex = 0
			return
		}

		if c.currentDate.IsZero() || li.Find("a").Length() == 0 {
			return
		}

		ev := c.parseItem(li)
		c.rowIndex++

		c.seen[ev.ID]++
		if n := c.seen[ev.ID]; n > 1 {
			ev.ID = fmt.Sprintf("%s-%d", ev.ID, n)
		}
		c.events = append(c.events, ev)
	})
}

// parseItem maps one event <li>: first anchor is the venue, remaining
// anchors are performers, trailing markup after the last anchor is the
// free-text description.
func (c *crawl) parseItem(li *goquery.Selection) domain.CmfEvent {
	anchors := li.Find("a")

	venue := strings.TrimSpace(anchors.First().Text())
	venueLink, _ := anchors.First().Attr("href")

	bands := make([]string, 0, anchors.Length()-1)
	anchors.Each(func(i int, a *goquery.Selection) {
		if i == 0 {
			return
		}
		if band := strings.TrimSpace(a.Text()); band != "" {
			bands = append(bands, band)
		}
	})

	title := strings.Join(bands, ", ")
	if title == "" {
		title = fallbackTitle
	}

	desc := ApplyLegend(trailingText(li))

	hour, minute := defaultHour, 0
	if h, m, ok := sources.ParseClockTime(desc); ok {
		hour, minute = h, m
	}

	// Wall-clock digits stamped Z; the venue's real zone is attached after
	// geocoding.
	start := time.Date(
		c.currentDate.Year(), c.currentDate.Month(), c.currentDate.Day(),
		hour, minute, 0, 0, time.UTC,
	)

	location := NormalizeVenue(venue)

	return domain.CmfEvent{
		ID:               fmt.Sprintf("%s-%s-%d", slugify(venue), start.Format("2006-01-02"), c.rowIndex),
		Name:             title,
		Start:            start.Format(time.RFC3339),
		End:              start.Format(time.RFC3339),
		TZ:               domain.TzReinterpretUTCToLocal,
		Location:         location,
		Description:      desc,
		DescriptionURLs:  sources.ExtractURLs(desc),
		OriginalEventURL: venueLink,
	}
}

// trailingText extracts the text after the last anchor in the item.
func trailingText(li *goquery.Selection) string {
	html, err := goquery.OuterHtml(li)
	if err != nil {
		return ""
	}
	idx := strings.LastIndex(html, "</a>")
	if idx < 0 {
		return ""
	}
	frag, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + html[idx+len("</a>"):] + "</div>"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(frag.Text())
}

// ApplyLegend appends the bracketed explanation after each legend symbol.
// "a/a" must run before "a" would ever match, hence the ordered slice.
func ApplyLegend(desc string) string {
	for _, l := range legend {
		desc = strings.ReplaceAll(desc, l.symbol, l.meaning)
	}
	return desc
}

// NormalizeVenue appends ", CA, USA" to bare venue names; every venue on
// the list is in California.
func NormalizeVenue(venue string) string {
	venue = strings.TrimRight(strings.TrimSpace(venue), ",")
	if venue == "" {
		return venue
	}
	upper := strings.ToUpper(venue)
	if strings.Contains(upper, "CA") && strings.Contains(upper, "USA") {
		return venue
	}
	return venue + venueSuffix
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
