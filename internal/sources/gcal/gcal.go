// Package gcal implements the Google Calendar event source ("gc" prefix).
// The identifier remainder is the calendar ID, e.g. "gc:calendar@example.com".
package gcal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/chadn/cmf-server/internal/httperror"
	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/sources"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

const maxResultsPerPage = 2500

type Adapter struct {
	log  *slog.Logger
	opts []option.ClientOption
}

// New fails fast when no API key is configured; the error surfaces during
// registry initialization, before any network call. Extra client options
// (test endpoints) replace the key requirement.
func New(log *slog.Logger, apiKey string, opts ...option.ClientOption) (*Adapter, error) {
	if apiKey == "" && len(opts) == 0 {
		return nil, fmt.Errorf("gcal.New(): GOOGLE_API_KEY is not set")
	}
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	return &Adapter{log: log, opts: opts}, nil
}

func (a *Adapter) Type() domain.EventsSource {
	return domain.EventsSource{
		Prefix: "gc",
		Name:   "Google Calendar",
		URL:    "https://calendar.google.com/",
	}
}

func (a *Adapter) CacheTTL() time.Duration { return 10 * time.Minute }

func (a *Adapter) FetchEvents(ctx context.Context, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error) {
	op := "gcal.Adapter.FetchEvents()"
	log := a.log.With(slog.String("op", op), slog.String("calendarID", params.ID))

	svc, err := calendar.NewService(ctx, a.opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	events := make([]domain.CmfEvent, 0)
	seen := make(map[string]bool)
	pageToken := ""

	for {
		call := svc.Events.List(params.ID).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(maxResultsPerPage)
		if params.TimeMin != "" {
			call = call.TimeMin(params.TimeMin)
		}
		if params.TimeMax != "" {
			call = call.TimeMax(params.TimeMax)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Context(ctx).Do()
		if err != nil {
			if ge, ok := err.(*googleapi.Error); ok {
				return nil, httperror.New(ge.Code, ge.Message)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		for _, item := range page.Items {
			ev, cerr := convertEvent(item)
			if cerr != nil {
				log.Warn("skipping calendar event", slog.String("googleID", item.Id), sl.Err(cerr))
				continue
			}
			if !inWindow(ev, params) || seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			events = append(events, ev)
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	log.Info("calendar fetch completed", slog.Int("events", len(events)))

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

// inWindow filters on the start/end strings as provided by the source, not
// on reinterpreted values; at this stage both sides of the comparison are
// ISO-8601 so string ordering matches time ordering.
func inWindow(ev domain.CmfEvent, params domain.EventsSourceParams) bool {
	if params.TimeMin != "" && ev.End < params.TimeMin {
		return false
	}
	if params.TimeMax != "" && ev.Start > params.TimeMax {
		return false
	}
	return true
}

func convertEvent(item *calendar.Event) (domain.CmfEvent, error) {
	if item.Start == nil || item.End == nil {
		return domain.CmfEvent{}, fmt.Errorf("event %q has no start or end", item.Id)
	}

	ev := domain.CmfEvent{
		ID:               item.Id,
		Name:             item.Summary,
		Location:         item.Location,
		Description:      item.Description,
		DescriptionURLs:  sources.ExtractURLs(item.Description),
		OriginalEventURL: item.HtmlLink,
	}
	if ev.Name == "" {
		ev.Name = "(untitled)"
	}

	switch {
	case item.Start.DateTime != "":
		// Timed events carry a real offset, so the instant is accurate.
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return domain.CmfEvent{}, fmt.Errorf("event %q: bad start: %w", item.Id, err)
		}
		end := start
		if item.End.DateTime != "" {
			if end, err = time.Parse(time.RFC3339, item.End.DateTime); err != nil {
				return domain.CmfEvent{}, fmt.Errorf("event %q: bad end: %w", item.Id, err)
			}
		}
		ev.Start = start.UTC().Format(time.RFC3339)
		ev.End = end.UTC().Format(time.RFC3339)
		ev.TZ = domain.TzTimeIsAccurate

	case item.Start.Date != "":
		// All-day events are wall-clock dates with no zone of their own.
		start, err := time.Parse("2006-01-02", item.Start.Date)
		if err != nil {
			return domain.CmfEvent{}, fmt.Errorf("event %q: bad start date: %w", item.Id, err)
		}
		end := start
		if item.End.Date != "" {
			if end, err = time.Parse("2006-01-02", item.End.Date); err != nil {
				return domain.CmfEvent{}, fmt.Errorf("event %q: bad end date: %w", item.Id, err)
			}
		}
		ev.Start = start.Format(time.RFC3339)
		ev.End = end.Format(time.RFC3339)
		ev.TZ = domain.TzReinterpretUTCToLocal

	default:
		return domain.CmfEvent{}, fmt.Errorf("event %q has no usable start time", item.Id)
	}

	return ev, nil
}
