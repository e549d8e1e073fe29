package nineteenhz

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadn/cmf-server/internal/config"
	"github.com/chadn/cmf-server/internal/httperror"
	"github.com/chadn/cmf-server/internal/httputil"
	"github.com/chadn/cmf-server/internal/models/domain"
)

const testPage = `<html><body><table>
<tr><th>Date</th><th>Event</th></tr>
<tr>
  <td>Fri: Jun 19</td>
  <td><a href="https://example.com/techno">Deep Night @ The Endup</a></td>
  <td>techno, house</td>
  <td>$10, 10pm</td>
  <td>21+</td>
</tr>
<tr>
  <td>Sat: Jun 20</td>
  <td>Warehouse Session @ Secret Location, Oakland</td>
  <td>acid</td>
  <td>$15</td>
</tr>
<tr><td>not a date</td><td>garbage row</td></tr>
</table></body></html>`

func testRegion() config.NineteenHzRegion {
	return config.NineteenHzRegion{
		Key:      "BayArea",
		URL:      "https://19hz.info/eventlisting_BayArea.php",
		Timezone: "America/Los_Angeles",
		Suffix:   ", CA, USA",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParsePage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(testPage))
	require.NoError(t, err)

	la, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, la)

	events, err := ParsePage(testLogger(), doc, testRegion(), now)
	require.NoError(t, err)
	require.Len(t, events, 2)

	deep := events[0]
	assert.Equal(t, "deep-night-2026-06-19", deep.ID)
	assert.Equal(t, "Deep Night", deep.Name)
	assert.Equal(t, "The Endup, CA, USA", deep.Location)
	assert.Equal(t, "2026-06-19T22:00:00-07:00", deep.Start)
	assert.Equal(t, deep.Start, deep.End)
	assert.Equal(t, domain.Timezone("America/Los_Angeles"), deep.TZ)
	assert.Equal(t, "https://example.com/techno", deep.OriginalEventURL)
	assert.Contains(t, deep.Description, "techno, house")
	assert.Contains(t, deep.Description, "21+")

	// No time listed: the default evening hour applies. The venue already
	// names a CA city but not the suffix marker, so the suffix is appended.
	warehouse := events[1]
	assert.Equal(t, "2026-06-20T21:00:00-07:00", warehouse.Start)
	assert.Equal(t, "Secret Location, Oakland, CA, USA", warehouse.Location)
	assert.Empty(t, warehouse.OriginalEventURL)
}

func TestParsePageDuplicateIDs(t *testing.T) {
	page := `<table>
<tr><td>Fri: Jun 19</td><td>Same Show @ A</td></tr>
<tr><td>Fri: Jun 19</td><td>Same Show @ B</td></tr>
</table>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	la, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, la)

	events, err := ParsePage(testLogger(), doc, testRegion(), now)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "same-show-2026-06-19", events[0].ID)
	assert.Equal(t, "same-show-2026-06-19-2", events[1].ID)
}

func TestParsePageBadRegionZone(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(testPage))
	require.NoError(t, err)

	region := testRegion()
	region.Timezone = "Not/AZone"

	_, err = ParsePage(testLogger(), doc, region, time.Now())
	assert.Error(t, err)
}

func TestFetchEventsUnknownRegion(t *testing.T) {
	a := New(testLogger(), httputil.NewClient(testLogger(), nil), []config.NineteenHzRegion{testRegion()})

	_, err := a.FetchEvents(context.Background(), domain.EventsSourceParams{ID: "Atlantis"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.StatusOf(err))
}

func TestFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testPage)
	}))
	defer srv.Close()

	region := testRegion()
	region.URL = srv.URL

	a := New(testLogger(), httputil.NewClient(testLogger(), nil), []config.NineteenHzRegion{region})

	resp, err := a.FetchEvents(context.Background(), domain.EventsSourceParams{ID: "BayArea"})
	require.NoError(t, err)
	assert.Equal(t, "19hz", resp.Source.Prefix)
	assert.Equal(t, len(resp.Events), resp.Source.TotalCount)
	assert.NotEmpty(t, resp.Events)
}
