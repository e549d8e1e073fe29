// Package nineteenhz implements the 19hz.info listings source ("19hz"
// prefix). The identifier remainder selects a configured region page.
//
// Every event on a region page is anchored in that region's single
// timezone. A minority of listed venues sit across a zone border; this is a
// known limitation of the upstream listing format, inherited deliberately.
package nineteenhz

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/chadn/cmf-server/internal/config"
	"github.com/chadn/cmf-server/internal/httperror"
	"github.com/chadn/cmf-server/internal/httputil"
	"github.com/chadn/cmf-server/internal/models/domain"
)

type Adapter struct {
	log     *slog.Logger
	client  *httputil.Client
	regions map[string]config.NineteenHzRegion
}

func New(log *slog.Logger, client *httputil.Client, regions []config.NineteenHzRegion) *Adapter {
	byKey := make(map[string]config.NineteenHzRegion, len(regions))
	for _, r := range regions {
		byKey[r.Key] = r
	}
	return &Adapter{log: log, client: client, regions: byKey}
}

func (a *Adapter) Type() domain.EventsSource {
	return domain.EventsSource{
		Prefix: "19hz",
		Name:   "19hz Electronic Music Events",
		URL:    "https://19hz.info/",
	}
}

func (a *Adapter) CacheTTL() time.Duration { return time.Hour }

func (a *Adapter) FetchEvents(ctx context.Context, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error) {
	op := "nineteenhz.Adapter.FetchEvents()"
	log := a.log.With(slog.String("op", op), slog.String("region", params.ID))

	region, ok := a.regions[params.ID]
	if !ok {
		return nil, httperror.BadRequest("unknown 19hz region %q", params.ID)
	}

	body, err := a.client.GetCached(ctx, region.URL, a.CacheTTL())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse HTML: %w", op, err)
	}

	events, err := ParsePage(log, doc, region, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("19hz fetch completed", slog.Int("events", len(events)))

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
