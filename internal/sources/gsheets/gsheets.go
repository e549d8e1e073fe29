// Package gsheets implements the Google Sheets event source ("sheet"
// prefix). The identifier remainder is the spreadsheet ID; the tab name and
// header row index come from configuration.
package gsheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/chadn/cmf-server/internal/httperror"
	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

type Adapter struct {
	log       *slog.Logger
	tab       string
	headerRow int
	opts      []option.ClientOption
}

func New(log *slog.Logger, apiKey, tab string, headerRow int, opts ...option.ClientOption) (*Adapter, error) {
	if apiKey == "" && len(opts) == 0 {
		return nil, fmt.Errorf("gsheets.New(): GOOGLE_API_KEY is not set")
	}
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	if tab == "" {
		tab = "Sheet1"
	}
	return &Adapter{log: log, tab: tab, headerRow: headerRow, opts: opts}, nil
}

func (a *Adapter) Type() domain.EventsSource {
	return domain.EventsSource{
		Prefix: "sheet",
		Name:   "Google Sheets",
		URL:    "https://sheets.google.com/",
	}
}

func (a *Adapter) CacheTTL() time.Duration { return 30 * time.Minute }

func (a *Adapter) FetchEvents(ctx context.Context, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error) {
	op := "gsheets.Adapter.FetchEvents()"
	log := a.log.With(slog.String("op", op), slog.String("spreadsheetID", params.ID))

	svc, err := sheets.NewService(ctx, a.opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := svc.Spreadsheets.Values.Get(params.ID, a.tab).Context(ctx).Do()
	if err != nil {
		if ge, ok := err.(*googleapi.Error); ok {
			return nil, httperror.New(ge.Code, ge.Message)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	records, err := ZipRows(a.headerRow, resp.Values)
	if err != nil {
		// The whole response is unusable, not a partial-row problem.
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	events := make([]domain.CmfEvent, 0, len(records))
	seen := make(map[string]bool)
	for i, rec := range records {
		ev, perr := ParseRow(rec, time.Now())
		if perr != nil {
			log.Warn("skipping sheet row", slog.Int("row", a.headerRow+1+i), sl.Err(perr))
			continue
		}
		if seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true
		events = append(events, ev)
	}

	log.Info("sheet fetch completed", slog.Int("rows", len(records)), slog.Int("events", len(events)))

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
