package mobilize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadn/cmf-server/internal/httputil"
	"github.com/chadn/cmf-server/internal/models/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Two pages of the Mobilize API; page 2 is linked from page 1's "next".
func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organizations/777/events" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{
				"count": 2, "next": "",
				"data": [{
					"id": 20, "title": "Phone Bank",
					"description": "Sign up at https://example.com/pb",
					"browser_url": "https://www.mobilize.us/org/event/20/",
					"location": {
						"venue": "HQ", "address_lines": ["456 Oak St", ""],
						"locality": "Oakland", "region": "CA", "postal_code": "94607",
						"location": {"latitude": 37.8044, "longitude": -122.2712}
					},
					"timeslots": [{"id": 3, "start_date": 1767312000, "end_date": 1767315600}]
				}]
			}`)
			return
		}

		fmt.Fprintf(w, `{
			"count": 2, "next": "%s/organizations/777/events?page=2",
			"data": [{
				"id": 10, "title": "Canvass", "timezone": "America/Los_Angeles",
				"browser_url": "https://www.mobilize.us/org/event/10/",
				"timeslots": [
					{"id": 1, "start_date": 1767225600, "end_date": 1767229200},
					{"id": 2, "start_date": 1770000000, "end_date": 0},
					{"id": 4, "start_date": 0, "end_date": 0}
				]
			}]
		}`, srv.URL)
	}))
	return srv
}

func TestFetchEventsPagination(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	a := New(testLogger(), httputil.NewClient(testLogger(), nil), srv.URL)

	resp, err := a.FetchEvents(context.Background(), domain.EventsSourceParams{ID: "777"})
	require.NoError(t, err)

	// Two timeslots on event 10 (the zero-start slot is dropped) plus one on
	// event 20.
	require.Len(t, resp.Events, 3)
	assert.Equal(t, "mobilize", resp.Source.Prefix)
	assert.Equal(t, "777", resp.Source.ID)

	byID := make(map[string]domain.CmfEvent)
	for _, ev := range resp.Events {
		byID[ev.ID] = ev
	}

	canvass := byID["mobilize-10-1"]
	assert.Equal(t, "Canvass", canvass.Name)
	assert.Equal(t, domain.Timezone("America/Los_Angeles"), canvass.TZ)
	assert.Equal(t, "2026-01-01T00:00:00Z", canvass.Start)
	assert.Equal(t, int64(1767225600), canvass.StartSecs)
	assert.Equal(t, int64(1767229200), canvass.EndSecs)

	// Missing end date collapses to the start instant.
	slot2 := byID["mobilize-10-2"]
	assert.Equal(t, slot2.StartSecs, slot2.EndSecs)

	pb := byID["mobilize-20-3"]
	assert.Equal(t, domain.TzTimeIsAccurate, pb.TZ)
	assert.Equal(t, "HQ, 456 Oak St, Oakland, CA 94607", pb.Location)
	require.NotNil(t, pb.ResolvedLocation)
	assert.Equal(t, domain.LocationResolved, pb.ResolvedLocation.Status)
	assert.Equal(t, domain.Timezone("America/Los_Angeles"), pb.ResolvedLocation.LocationTZ)
	assert.Equal(t, []string{"https://example.com/pb"}, pb.DescriptionURLs)
}

func TestFetchEventsWindow(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	a := New(testLogger(), httputil.NewClient(testLogger(), nil), srv.URL)

	resp, err := a.FetchEvents(context.Background(), domain.EventsSourceParams{
		ID:      "777",
		TimeMin: "1767300000",
	})
	require.NoError(t, err)

	// The first timeslot ends before timeMin and is dropped.
	require.Len(t, resp.Events, 2)
	for _, ev := range resp.Events {
		assert.NotEqual(t, "mobilize-10-1", ev.ID)
	}
}

func TestFetchEventsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	a := New(testLogger(), httputil.NewClient(testLogger(), nil), srv.URL)

	_, err := a.FetchEvents(context.Background(), domain.EventsSourceParams{ID: "777"})
	assert.Error(t, err)
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "", formatAddress(nil))
	assert.Equal(t, "Oakland, CA", formatAddress(&apiLocation{Locality: "Oakland", Region: "CA"}))
}
