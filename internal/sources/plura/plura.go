// Package plura implements the Plura community events source ("plura"
// prefix) against its GraphQL API. The identifier remainder is a community
// slug; pages are followed by cursor until exhausted.
package plura

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chadn/cmf-server/internal/geocoder"
	"github.com/chadn/cmf-server/internal/httputil"
	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/sources"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

const eventsQuery = `query CommunityEvents($slug: String!, $after: String) {
  communityEvents(slug: $slug, first: 50, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges { node {
      id title description url startsAt endsAt
      venue { name address city region latitude longitude }
    } }
  }
}`

type Adapter struct {
	log    *slog.Logger
	client *httputil.Client
	url    string
}

func New(log *slog.Logger, client *httputil.Client, graphqlURL string) *Adapter {
	return &Adapter{log: log, client: client, url: graphqlURL}
}

func (a *Adapter) Type() domain.EventsSource {
	return domain.EventsSource{
		Prefix: "plura",
		Name:   "Plura",
		URL:    "https://plura.io/",
	}
}

// CacheTTL is <= 0: GraphQL POST bodies are not cached.
func (a *Adapter) CacheTTL() time.Duration { return 0 }

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlResponse struct {
	Data struct {
		CommunityEvents struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Edges []struct {
				Node gqlEvent `json:"node"`
			} `json:"edges"`
		} `json:"communityEvents"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type gqlEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	StartsAt    string `json:"startsAt"`
	EndsAt      string `json:"endsAt"`
	Venue       *struct {
		Name      string  `json:"name"`
		Address   string  `json:"address"`
		City      string  `json:"city"`
		Region    string  `json:"region"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"venue"`
}

func (a *Adapter) FetchEvents(ctx context.Context, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error) {
	op := "plura.Adapter.FetchEvents()"
	log := a.log.With(slog.String("op", op), slog.String("community", params.ID))

	events := make([]domain.CmfEvent, 0)
	// Per-call pagination state: cursors already followed, guarding
	// against an upstream cursor loop.
	seenCursors := make(map[string]bool)
	cursor := ""

	for {
		req := gqlRequest{
			Query:     eventsQuery,
			Variables: map[string]any{"slug": params.ID},
		}
		if cursor != "" {
			req.Variables["after"] = cursor
		}

		var resp gqlResponse
		if err := a.client.PostJSON(ctx, a.url, req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("%s: graphql error: %s", op, resp.Errors[0].Message)
		}

		for _, edge := range resp.Data.CommunityEvents.Edges {
			ev, cerr := convertEvent(edge.Node)
			if cerr != nil {
				log.Warn("skipping plura event", slog.String("id", edge.Node.ID), sl.Err(cerr))
				continue
			}
			if !inWindow(ev, params) {
				continue
			}
			events = append(events, ev)
		}

		page := resp.Data.CommunityEvents.PageInfo
		if !page.HasNextPage || page.EndCursor == "" || seenCursors[page.EndCursor] {
			break
		}
		seenCursors[page.EndCursor] = true
		cursor = page.EndCursor
	}

	log.Info("plura fetch completed", slog.Int("events", len(events)))

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

func convertEvent(n gqlEvent) (domain.CmfEvent, error) {
	if n.ID == "" || n.StartsAt == "" {
		return domain.CmfEvent{}, fmt.Errorf("event missing id or start")
	}

	start, err := time.Parse(time.RFC3339, n.StartsAt)
	if err != nil {
		return domain.CmfEvent{}, fmt.Errorf("event %q: bad startsAt: %w", n.ID, err)
	}
	end := start
	if n.EndsAt != "" {
		if end, err = time.Parse(time.RFC3339, n.EndsAt); err != nil {
			return domain.CmfEvent{}, fmt.Errorf("event %q: bad endsAt: %w", n.ID, err)
		}
	}

	ev := domain.CmfEvent{
		ID:               "plura-" + n.ID,
		Name:             n.Title,
		Start:            start.UTC().Format(time.RFC3339),
		End:              end.UTC().Format(time.RFC3339),
		TZ:               domain.TzTimeIsAccurate,
		Description:      n.Description,
		DescriptionURLs:  sources.ExtractURLs(n.Description),
		OriginalEventURL: n.URL,
	}

	if v := n.Venue; v != nil {
		parts := make([]string, 0, 4)
		for _, p := range []string{v.Name, v.Address, v.City, v.Region} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		ev.Location = joinNonEmpty(parts)

		if v.Latitude != 0 {
			ev.ResolvedLocation = &domain.ResolvedLocation{
				Status:           domain.LocationResolved,
				Lat:              v.Latitude,
				Lng:              v.Longitude,
				FormattedAddress: ev.Location,
				LocationTZ:       geocoder.GetTimezoneFromLatLng(v.Latitude, v.Longitude),
			}
		}
	}

	return ev, nil
}

func inWindow(ev domain.CmfEvent, params domain.EventsSourceParams) bool {
	if params.TimeMin != "" && ev.End < params.TimeMin {
		return false
	}
	if params.TimeMax != "" && ev.Start > params.TimeMax {
		return false
	}
	return true
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
