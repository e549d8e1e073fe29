package domain

// Timezone is either a concrete IANA zone name or one of the sentinel
// values below. Sources that cannot determine the zone at parse time emit a
// sentinel; the timezone resolution pass replaces it after geocoding.
type Timezone string

const (
	// TzReinterpretUTCToLocal means the wall-clock digits in Start/End are
	// correct for the event's true local zone, but the source serialized
	// them with a UTC suffix. Once the real zone is known the digits must
	// be re-anchored in that zone without shifting the clock reading.
	TzReinterpretUTCToLocal Timezone = "REINTERPRET_UTC_TO_LOCAL"
	// TzTimeIsAccurate means Start/End are correct instants in UTC; the
	// resolved zone is only attached for display.
	TzTimeIsAccurate Timezone = "TIME_IS_ACCURATE"
	// TzUnknown is terminal: the event's zone could not be determined.
	TzUnknown Timezone = "UNKNOWN_TZ"
)

// IsSentinel reports whether t is one of the placeholder values rather than
// a concrete zone name.
func (t Timezone) IsSentinel() bool {
	switch t {
	case TzReinterpretUTCToLocal, TzTimeIsAccurate, TzUnknown:
		return true
	default:
		return false
	}
}

// IsZone reports whether t claims to be a concrete IANA zone name.
func (t Timezone) IsZone() bool {
	return t != "" && !t.IsSentinel()
}

// LocationStatus tags the two variants of ResolvedLocation.
type LocationStatus string

const (
	LocationResolved   LocationStatus = "resolved"
	LocationUnresolved LocationStatus = "unresolved"
)

// ResolvedLocation is produced by the geocoder for an event's free-text
// location. Lat/Lng/FormattedAddress/LocationTZ are meaningful only when
// Status is LocationResolved.
type ResolvedLocation struct {
	Status           LocationStatus `json:"status"`
	Lat              float64        `json:"lat,omitempty"`
	Lng              float64        `json:"lng,omitempty"`
	FormattedAddress string         `json:"formatted_address,omitempty"`
	LocationTZ       Timezone       `json:"location_tz,omitempty"`
	OriginalLocation string         `json:"original_location,omitempty"`
}

// CmfEvent is the canonical unit every source adapter emits.
//
// Start and End are ISO-8601 date-time strings whose semantics depend on TZ.
// StartSecs/EndSecs are epoch-seconds caches: zero means unset; once set
// they are never overwritten (reinterpretation rewrites them in the same
// pass that rewrites Start/End, nothing else touches them).
type CmfEvent struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Start            string            `json:"start"`
	End              string            `json:"end"`
	StartSecs        int64             `json:"startSecs,omitempty"`
	EndSecs          int64             `json:"endSecs,omitempty"`
	TZ               Timezone          `json:"tz"`
	Location         string            `json:"location"`
	ResolvedLocation *ResolvedLocation `json:"resolved_location,omitempty"`
	Description      string            `json:"description,omitempty"`
	DescriptionURLs  []string          `json:"description_urls,omitempty"`
	OriginalEventURL string            `json:"original_event_url"`
}

// EventsSource identifies an adapter family. Prefix must be unique across
// the registry.
type EventsSource struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
	URL    string `json:"url"`
}

// EventsSourceParams carries the adapter-specific remainder of a source
// identifier plus an optional ISO-8601 time window.
type EventsSourceParams struct {
	ID      string
	TimeMin string
	TimeMax string
}

// SourceInfo describes the source a batch came from.
type SourceInfo struct {
	EventsSource
	ID                    string `json:"id"`
	TotalCount            int    `json:"totalCount"`
	UnknownLocationsCount int    `json:"unknownLocationsCount"`
}

// EventsSourceResponse is the unified result of one adapter fetch.
type EventsSourceResponse struct {
	HTTPStatus int        `json:"httpStatus"`
	Events     []CmfEvent `json:"events"`
	Source     SourceInfo `json:"source"`
}
