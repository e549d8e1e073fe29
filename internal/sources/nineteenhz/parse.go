package nineteenhz

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/chadn/cmf-server/internal/config"
	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/sources"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

// defaultHour is used when a row lists no start time; club listings without
// one are overwhelmingly evening shows.
const defaultHour = 21

// ParsePage walks the region page's listing table rows. One malformed row
// is logged and skipped; it never fails the page.
func ParsePage(log *slog.Logger, doc *goquery.Document, region config.NineteenHzRegion, now time.Time) ([]domain.CmfEvent, error) {
	loc, err := time.LoadLocation(region.Timezone)
	if err != nil {
		return nil, fmt.Errorf("region %q has bad timezone %q: %w", region.Key, region.Timezone, err)
	}

	events := make([]domain.CmfEvent, 0)
	seen := make(map[string]int)

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		ev, perr := parseRow(row, region, loc, now)
		if perr != nil {
			log.Warn("skipping 19hz row", slog.Int("row", i), sl.Err(perr))
			return
		}
		if ev == nil {
			return // header or spacer row
		}

		seen[ev.ID]++
		if n := seen[ev.ID]; n > 1 {
			ev.ID = fmt.Sprintf("%s-%d", ev.ID, n)
		}
		events = append(events, *ev)
	})

	return events, nil
}

// parseRow maps one <tr> of the listing table:
// date | title @ venue | tags | price/time | age | organizers | links.
func parseRow(row *goquery.Selection, region config.NineteenHzRegion, loc *time.Location, now time.Time) (*domain.CmfEvent, error) {
	cells := row.Find("td")
	if cells.Length() < 2 {
		return nil, nil
	}

	date, ok := sources.ParseListingDate(cells.Eq(0).Text(), now, loc)
	if !ok {
		return nil, nil
	}

	titleCell := cells.Eq(1)
	title := strings.TrimSpace(titleCell.Text())
	if title == "" {
		return nil, fmt.Errorf("row has empty title cell")
	}
	name, venue := splitTitleVenue(title)

	link, _ := titleCell.Find("a").First().Attr("href")

	hour, minute := defaultHour, 0
	var priceTime string
	if cells.Length() > 3 {
		priceTime = strings.TrimSpace(cells.Eq(3).Text())
		if h, m, tok := sources.ParseClockTime(priceTime); tok {
			hour, minute = h, m
		}
	}

	var descParts []string
	for _, idx := range []int{2, 3, 4, 5} {
		if cells.Length() > idx {
			if txt := strings.TrimSpace(cells.Eq(idx).Text()); txt != "" {
				descParts = append(descParts, txt)
			}
		}
	}
	desc := strings.Join(descParts, " | ")

	// The whole page shares the region's zone, so the instant is computed
	// directly; geocoding only refines display data afterwards.
	start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)

	location := venue
	if location != "" && region.Suffix != "" && !strings.Contains(location, strings.TrimPrefix(region.Suffix, ", ")) {
		location += region.Suffix
	}

	return &domain.CmfEvent{
		ID:               slugify(name) + "-" + start.Format("2006-01-02"),
		Name:             name,
		Start:            start.Format(time.RFC3339),
		End:              start.Format(time.RFC3339),
		TZ:               domain.Timezone(region.Timezone),
		Location:         location,
		Description:      desc,
		DescriptionURLs:  sources.ExtractURLs(desc),
		OriginalEventURL: link,
	}, nil
}

// splitTitleVenue splits "Event Name @ Venue" cells.
func splitTitleVenue(title string) (string, string) {
	if name, venue, found := strings.Cut(title, " @ "); found {
		return strings.TrimSpace(name), strings.TrimSpace(venue)
	}
	return title, ""
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
