package gsheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadn/cmf-server/internal/models/domain"
)

func TestZipRows(t *testing.T) {
	values := [][]any{
		{"Name", "Date", "Link"},
		{"First Friday", "7/10/2026 5:00 PM", "https://example.com/a"},
		{"Short Row"},
	}

	records, err := ZipRows(0, values)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "First Friday", records[0]["Name"])
	assert.Equal(t, "https://example.com/a", records[0]["Link"])

	// Short rows are padded, not dropped.
	assert.Equal(t, "Short Row", records[1]["Name"])
	assert.Equal(t, "", records[1]["Date"])
}

func TestZipRowsNoData(t *testing.T) {
	_, err := ZipRows(0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data found in Google Sheet")

	_, err = ZipRows(2, [][]any{{"Name"}})
	assert.Error(t, err)
}

func TestParseRow(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	t.Run("complete row", func(t *testing.T) {
		ev, err := ParseRow(map[string]string{
			"Name":        "First Friday",
			"Date":        "7/10/2026 5:00 PM",
			"Link":        "https://example.com/a",
			"Description": "More at https://example.com/info",
			"Address":     "123 Main St",
			"City":        "Oakland",
			"State":       "CA",
		}, now)
		require.NoError(t, err)

		assert.Equal(t, "sheet-example-com-a", ev.ID)
		assert.Equal(t, "First Friday", ev.Name)
		assert.Equal(t, "2026-07-10T17:00:00Z", ev.Start)
		assert.Equal(t, "2026-07-10T17:01:00Z", ev.End)
		assert.Equal(t, domain.TzReinterpretUTCToLocal, ev.TZ)
		assert.Equal(t, "123 Main St, Oakland, CA", ev.Location)
		assert.Equal(t, []string{"https://example.com/info"}, ev.DescriptionURLs)
		assert.Equal(t, "https://example.com/a", ev.OriginalEventURL)
	})

	t.Run("missing required columns", func(t *testing.T) {
		_, err := ParseRow(map[string]string{"Date": "7/10/2026", "Link": "https://x"}, now)
		assert.Error(t, err, "no name")

		_, err = ParseRow(map[string]string{"Name": "X", "Date": "7/10/2026"}, now)
		assert.Error(t, err, "no link")

		_, err = ParseRow(map[string]string{"Name": "X", "Link": "https://x"}, now)
		assert.Error(t, err, "no date")
	})
}

func TestJoinAddress(t *testing.T) {
	assert.Equal(t, "123 Main St, Oakland, CA", JoinAddress("123 Main St", "Oakland", "CA"))
	assert.Equal(t, "Oakland, CA", JoinAddress("", "Oakland", "CA"))
	assert.Equal(t, "Oakland", JoinAddress("Address is private - sign up", "Oakland", ""))
	assert.Equal(t, "", JoinAddress("", "", ""))
}

func TestParseWhen(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		input     string
		wantStart string
		wantEnd   string
	}{
		{"slash date with time", "7/10/2026 5:00 PM", "2026-07-10T17:00:00Z", "2026-07-10T17:01:00Z"},
		{"slash date only", "7/10/2026", "2026-07-10T00:00:00Z", "2026-07-10T00:00:00Z"},
		{"iso date only", "2026-07-10", "2026-07-10T00:00:00Z", "2026-07-10T00:00:00Z"},
		{"long form", "July 10, 2026 5:00 PM", "2026-07-10T17:00:00Z", "2026-07-10T17:01:00Z"},
		{"extra whitespace collapsed", "  7/10/2026   5:00 PM ", "2026-07-10T17:00:00Z", "2026-07-10T17:01:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ParseWhen(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}

	_, _, err := ParseWhen("next thursday-ish", now)
	assert.Error(t, err)
}

func TestIDFromLink(t *testing.T) {
	assert.Equal(t, "sheet-example-com-events-123", IDFromLink("https://www.Example.com/Events/123"))
	assert.Equal(t, "sheet-example-com-a", IDFromLink("http://example.com/a/"))
}
