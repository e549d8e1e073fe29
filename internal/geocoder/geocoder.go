// Package geocoder bridges free-text event locations to resolved
// coordinates and IANA zones. The geocoding service itself is an injected
// collaborator; this package owns the lat/lng → timezone lookup and the
// batch resolution pass that feeds the timezone protocol.
package geocoder

import (
	"context"
	"sync"

	"github.com/ringsaturn/tzf"

	"github.com/chadn/cmf-server/internal/models/domain"
)

// Geocoder resolves a free-text location. Implementations live outside
// this repository (Google, Nominatim, a cache in front of either).
type Geocoder interface {
	ResolveLocation(ctx context.Context, location string) (domain.ResolvedLocation, error)
}

var (
	finderOnce sync.Once
	finder     tzf.F
	finderErr  error
)

// GetTimezoneFromLatLng maps coordinates to an IANA zone name, or TzUnknown
// when the point cannot be placed in any zone.
func GetTimezoneFromLatLng(lat, lng float64) domain.Timezone {
	finderOnce.Do(func() {
		finder, finderErr = tzf.NewDefaultFinder()
	})
	if finderErr != nil {
		return domain.TzUnknown
	}
	name := finder.GetTimezoneName(lng, lat)
	if name == "" {
		return domain.TzUnknown
	}
	return domain.Timezone(name)
}

// Unresolved is the fallback Geocoder used when no geocoding backend is
// configured: every location comes back as the unresolved variant.
type Unresolved struct{}

func (Unresolved) ResolveLocation(_ context.Context, location string) (domain.ResolvedLocation, error) {
	return domain.ResolvedLocation{
		Status:           domain.LocationUnresolved,
		OriginalLocation: location,
	}, nil
}
