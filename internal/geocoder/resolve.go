package geocoder

import (
	"context"
	"log/slog"

	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/timezone"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

// Resolver runs the post-fetch pipeline stage: geocode each event's
// location, stamp resolved_location (including location_tz), then apply the
// timezone protocol. Events enter with a sentinel or concrete TZ and leave
// display-ready.
type Resolver struct {
	log      *slog.Logger
	geocoder Geocoder
}

func NewResolver(log *slog.Logger, geocoder Geocoder) *Resolver {
	if geocoder == nil {
		geocoder = Unresolved{}
	}
	return &Resolver{log: log, geocoder: geocoder}
}

// ResolveResponse geocodes and timezone-resolves every event in resp in
// place and updates the source's unknown-location count. Per-event geocoder
// failures degrade that event to unresolved; timezone protocol errors
// propagate because they indicate pipeline bugs, not bad data.
func (r *Resolver) ResolveResponse(ctx context.Context, resp *domain.EventsSourceResponse) error {
	op := "geocoder.Resolver.ResolveResponse()"
	log := r.log.With(slog.String("op", op))

	unknown := 0
	for i := range resp.Events {
		ev := &resp.Events[i]

		if ev.ResolvedLocation == nil {
			rl, err := r.geocoder.ResolveLocation(ctx, ev.Location)
			if err != nil {
				log.Warn("geocoding failed",
					slog.String("eventID", ev.ID),
					slog.String("location", ev.Location),
					sl.Err(err),
				)
				rl = domain.ResolvedLocation{
					Status:           domain.LocationUnresolved,
					OriginalLocation: ev.Location,
				}
			}
			ev.ResolvedLocation = &rl
		}

		rl := ev.ResolvedLocation
		if rl.Status == domain.LocationResolved && !rl.LocationTZ.IsZone() {
			rl.LocationTZ = GetTimezoneFromLatLng(rl.Lat, rl.Lng)
		}
		if rl.Status != domain.LocationResolved {
			unknown++
		}

		if err := timezone.ResolveEvent(r.log, ev); err != nil {
			return err
		}
	}

	resp.Source.UnknownLocationsCount = unknown
	return nil
}
