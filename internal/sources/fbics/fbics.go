// Package fbics implements the Facebook ICS feed source ("fb" prefix). The
// identifier remainder is the full ICS URL of the exported events feed.
package fbics

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/chadn/cmf-server/internal/httputil"
	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

type Adapter struct {
	log    *slog.Logger
	client *httputil.Client
}

func New(log *slog.Logger, client *httputil.Client) *Adapter {
	return &Adapter{log: log, client: client}
}

func (a *Adapter) Type() domain.EventsSource {
	return domain.EventsSource{
		Prefix: "fb",
		Name:   "Facebook Events",
		URL:    "https://www.facebook.com/events/",
	}
}

func (a *Adapter) CacheTTL() time.Duration { return 15 * time.Minute }

func (a *Adapter) FetchEvents(ctx context.Context, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error) {
	op := "fbics.Adapter.FetchEvents()"
	log := a.log.With(slog.String("op", op))

	feedURL := params.ID
	if !strings.HasPrefix(feedURL, "http") {
		feedURL = "https://" + feedURL
	}

	body, err := a.client.GetCached(ctx, feedURL, a.CacheTTL())
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse ICS: %w", op, err)
	}

	windowMin, windowMax := window(params)

	events := make([]domain.CmfEvent, 0)
	seen := make(map[string]int)
	for _, ve := range cal.Events() {
		converted, cerr := convertVEvent(ve, windowMin, windowMax)
		if cerr != nil {
			log.Warn("skipping ICS event", sl.Err(cerr))
			continue
		}
		for _, ev := range converted {
			// Recurring feeds occasionally repeat UIDs; suffix collisions.
			seen[ev.ID]++
			if n := seen[ev.ID]; n > 1 {
				ev.ID = fmt.Sprintf("%s-%d", ev.ID, n)
			}
			events = append(events, ev)
		}
	}

	log.Info("ics fetch completed", slog.Int("events", len(events)))

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

// window derives the expansion window from params, defaulting to one month
// back and one year ahead.
func window(params domain.EventsSourceParams) (time.Time, time.Time) {
	min := time.Now().AddDate(0, -1, 0)
	max := time.Now().AddDate(1, 0, 0)
	if t, err := time.Parse(time.RFC3339, params.TimeMin); err == nil {
		min = t
	}
	if t, err := time.Parse(time.RFC3339, params.TimeMax); err == nil {
		max = t
	}
	return min, max
}
