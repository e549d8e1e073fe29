// Package mobilize implements the Mobilize America source ("mobilize"
// prefix). The identifier remainder is the organization ID. One upstream
// event expands into one CmfEvent per timeslot.
package mobilize

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/chadn/cmf-server/internal/geocoder"
	"github.com/chadn/cmf-server/internal/httputil"
	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/sources"
)

type Adapter struct {
	log     *slog.Logger
	client  *httputil.Client
	baseURL string
}

func New(log *slog.Logger, client *httputil.Client, baseURL string) *Adapter {
	return &Adapter{log: log, client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (a *Adapter) Type() domain.EventsSource {
	return domain.EventsSource{
		Prefix: "mobilize",
		Name:   "Mobilize",
		URL:    "https://www.mobilize.us/",
	}
}

func (a *Adapter) CacheTTL() time.Duration { return 5 * time.Minute }

type apiResponse struct {
	Count int        `json:"count"`
	Next  string     `json:"next"`
	Data  []apiEvent `json:"data"`
}

type apiEvent struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	BrowserURL  string       `json:"browser_url"`
	Timezone    string       `json:"timezone"`
	Location    *apiLocation `json:"location"`
	Timeslots   []apiSlot    `json:"timeslots"`
}

type apiLocation struct {
	Venue        string   `json:"venue"`
	AddressLines []string `json:"address_lines"`
	Locality     string   `json:"locality"`
	Region       string   `json:"region"`
	PostalCode   string   `json:"postal_code"`
	Location     *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

type apiSlot struct {
	ID        int64 `json:"id"`
	StartDate int64 `json:"start_date"`
	EndDate   int64 `json:"end_date"`
}

func (a *Adapter) FetchEvents(ctx context.Context, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error) {
	op := "mobilize.Adapter.FetchEvents()"
	log := a.log.With(slog.String("op", op), slog.String("orgID", params.ID))

	events := make([]domain.CmfEvent, 0)
	// Each page's URL comes from the prior response, so pages are awaited
	// strictly in sequence.
	next := fmt.Sprintf("%s/organizations/%s/events?per_page=100", a.baseURL, params.ID)
	pages := 0

	for next != "" {
		var page apiResponse
		if err := a.client.GetJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		pages++

		for _, ae := range page.Data {
			events = append(events, expandEvent(ae)...)
		}
		next = page.Next
	}

	events = filterWindow(events, params)

	log.Info("mobilize fetch completed", slog.Int("pages", pages), slog.Int("events", len(events)))

	return &domain.EventsSourceResponse{
		HTTPStatus: 200,
		Events:     events,
		Source: domain.SourceInfo{
			EventsSource: a.Type(),
			ID:           params.ID,
			TotalCount:   len(events),
		},
	}, nil
}

// expandEvent emits one CmfEvent per timeslot. Timeslot boundaries are Unix
// seconds, so the instants are accurate; the upstream zone name is attached
// when present.
func expandEvent(ae apiEvent) []domain.CmfEvent {
	tz := domain.TzTimeIsAccurate
	if ae.Timezone != "" {
		tz = domain.Timezone(ae.Timezone)
	}

	out := make([]domain.CmfEvent, 0, len(ae.Timeslots))
	for _, slot := range ae.Timeslots {
		if slot.StartDate == 0 {
			continue
		}
		endSecs := slot.EndDate
		if endSecs == 0 {
			endSecs = slot.StartDate
		}

		ev := domain.CmfEvent{
			ID:               fmt.Sprintf("mobilize-%d-%d", ae.ID, slot.ID),
			Name:             ae.Title,
			Start:            time.Unix(slot.StartDate, 0).UTC().Format(time.RFC3339),
			End:              time.Unix(endSecs, 0).UTC().Format(time.RFC3339),
			StartSecs:        slot.StartDate,
			EndSecs:          endSecs,
			TZ:               tz,
			Location:         formatAddress(ae.Location),
			Description:      ae.Description,
			DescriptionURLs:  sources.ExtractURLs(ae.Description),
			OriginalEventURL: ae.BrowserURL,
		}
		ev.ResolvedLocation = resolveLocation(ae.Location, ev.Location)
		out = append(out, ev)
	}
	return out
}

// resolveLocation builds the resolved variant iff a latitude is present;
// everything else stays unresolved for the geocoding pass.
func resolveLocation(loc *apiLocation, formatted string) *domain.ResolvedLocation {
	if loc == nil || loc.Location == nil || loc.Location.Latitude == 0 {
		return nil
	}
	lat, lng := loc.Location.Latitude, loc.Location.Longitude
	return &domain.ResolvedLocation{
		Status:           domain.LocationResolved,
		Lat:              lat,
		Lng:              lng,
		FormattedAddress: formatted,
		LocationTZ:       geocoder.GetTimezoneFromLatLng(lat, lng),
	}
}

func formatAddress(loc *apiLocation) string {
	if loc == nil {
		return ""
	}
	parts := make([]string, 0, 5)
	if loc.Venue != "" {
		parts = append(parts, loc.Venue)
	}
	for _, line := range loc.AddressLines {
		if strings.TrimSpace(line) != "" {
			parts = append(parts, strings.TrimSpace(line))
		}
	}
	if loc.Locality != "" {
		parts = append(parts, loc.Locality)
	}
	if loc.Region != "" {
		region := loc.Region
		if loc.PostalCode != "" {
			region += " " + loc.PostalCode
		}
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

// filterWindow drops events outside [timeMin, timeMax] using epoch
// comparison on the slot boundaries.
func filterWindow(events []domain.CmfEvent, params domain.EventsSourceParams) []domain.CmfEvent {
	minSecs := parseWindowBound(params.TimeMin)
	maxSecs := parseWindowBound(params.TimeMax)
	if minSecs == 0 && maxSecs == 0 {
		return events
	}

	out := events[:0]
	for _, ev := range events {
		if minSecs != 0 && ev.EndSecs < minSecs {
			continue
		}
		if maxSecs != 0 && ev.StartSecs > maxSecs {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func parseWindowBound(s string) int64 {
	if s == "" {
		return 0
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix()
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return secs
	}
	return 0
}
