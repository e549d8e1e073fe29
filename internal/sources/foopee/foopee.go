// Package foopee implements the foopee.com punk list source ("foopee"
// prefix). The main index page links a handful of "by date" range pages;
// each of those is a flat <li> listing where date headers and event rows
// interleave.
package foopee

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/geziyor/geziyor"
	"github.com/geziyor/geziyor/client"

	"github.com/chadn/cmf-server/internal/httperror"
	"github.com/chadn/cmf-server/internal/httputil"
	"github.com/chadn/cmf-server/internal/models/domain"
)

type Adapter struct {
	log     *slog.Logger
	client  *httputil.Client
	baseURL string
}

func New(log *slog.Logger, httpClient *httputil.Client, baseURL string) *Adapter {
	return &Adapter{log: log, client: httpClient, baseURL: baseURL}
}

func (a *Adapter) Type() domain.EventsSource {
	return domain.EventsSource{
		Prefix: "foopee",
		Name:   "Foopee Punk List",
		URL:    "http://www.foopee.com/punk/the-list/",
	}
}

func (a *Adapter) CacheTTL() time.Duration { return time.Hour }

func (a *Adapter) FetchEvents(ctx context.Context, params domain.EventsSourceParams) (*domain.EventsSourceResponse, error) {
	op := "foopee.Adapter.FetchEvents()"
	log := a.log.With(slog.String("op", op))

	// All scratch state is scoped to this call; the adapter itself stays
	// stateless across fetches.
	cr := newCrawl(a.log, time.Now())

	links := a.collectDateLinks()
	if len(links) == 0 {
		return nil, httperror.New(502, "no date pages found on foopee index")
	}

	// Pages are fetched one at a time; each page restarts the running
	// current-date state.
	for _, pageURL := range links {
		if cr.visited[pageURL] {
			continue
		}
		cr.visited[pageURL] = true

		body, err := a.client.GetCached(ctx, pageURL, a.CacheTTL())
		if err != nil {
			return nil, err
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%s: parse %s: %w", op, pageURL, err)
		}
		cr.parsePage(doc)
	}

	log.Info("foopee fetch completed",
		slog.Int("pages", len(cr.visited)),
		slog.Int("events", len(cr.events)),
	)

	return &domain.EventsSourceResponse{
		HTTPStatus: 200,
		Events:     cr.events,
		Source: domain.SourceInfo{
			EventsSource: a.Type(),
			ID:           params.ID,
			TotalCount:   len(cr.events),
		},
	}, nil
}

// collectDateLinks crawls the index page for "by date" range links.
func (a *Adapter) collectDateLinks() []string {
	var links []string
	var mu sync.Mutex

	geziyor.NewGeziyor(&geziyor.Options{
		StartURLs: []string{a.baseURL},
		ParseFunc: func(g *geziyor.Geziyor, r *client.Response) {
			r.HTMLDoc.Find("a").Each(func(i int, sel *goquery.Selection) {
				href, ok := sel.Attr("href")
				if !ok || !strings.Contains(href, "by-date") {
					return
				}
				if abs, err := r.Request.URL.Parse(href); err == nil {
					mu.Lock()
					links = append(links, abs.String())
					mu.Unlock()
				}
			})
		},
		LogDisabled: true,
	}).Start()

	return uniqueStrings(links)
}

func uniqueStrings(input []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, v := range input {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}
