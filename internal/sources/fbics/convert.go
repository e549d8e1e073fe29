package fbics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/sources"
)

const maxOccurrences = 366

// convertVEvent maps one VEVENT to CmfEvents, expanding an RRULE into one
// event per occurrence inside [windowMin, windowMax].
func convertVEvent(ve *ical.VEvent, windowMin, windowMax time.Time) ([]domain.CmfEvent, error) {
	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return nil, fmt.Errorf("VEVENT has no UID")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("VEVENT %q: no DTSTART: %w", uid, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// Duration unknown; documented-acceptable degenerate range.
		end = start
	}

	base := domain.CmfEvent{
		ID:               icsID(uid),
		Name:             propValue(ve, ical.ComponentPropertySummary),
		Location:         propValue(ve, ical.ComponentPropertyLocation),
		Description:      propValue(ve, ical.ComponentPropertyDescription),
		OriginalEventURL: propValue(ve, ical.ComponentPropertyUrl),
	}
	base.DescriptionURLs = sources.ExtractURLs(base.Description)
	if base.Name == "" {
		base.Name = "(untitled)"
	}
	if base.OriginalEventURL == "" && len(base.DescriptionURLs) > 0 {
		base.OriginalEventURL = base.DescriptionURLs[0]
	}

	// Facebook stamps UTC on times that are really the venue's wall clock,
	// so only an explicit TZID is trusted as an accurate instant.
	tz := domain.TzReinterpretUTCToLocal
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil && p.ICalParameters != nil {
		if tzids, ok := p.ICalParameters["TZID"]; ok && len(tzids) > 0 && tzids[0] != "" {
			tz = domain.Timezone(tzids[0])
		}
	}
	base.TZ = tz

	rawRRule := propValue(ve, ical.ComponentPropertyRrule)
	if rawRRule == "" {
		if end.Before(windowMin) || start.After(windowMax) {
			return nil, fmt.Errorf("VEVENT %q outside window", uid)
		}
		base.Start = stamp(start, tz)
		base.End = stamp(end, tz)
		return []domain.CmfEvent{base}, nil
	}

	r, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		return nil, fmt.Errorf("VEVENT %q: bad RRULE %q: %w", uid, rawRRule, err)
	}
	r.DTStart(start)

	occurrences := r.Between(windowMin, windowMax, true)
	if len(occurrences) > maxOccurrences {
		occurrences = occurrences[:maxOccurrences]
	}

	duration := end.Sub(start)
	out := make([]domain.CmfEvent, 0, len(occurrences))
	for _, occStart := range occurrences {
		ev := base
		ev.ID = fmt.Sprintf("%s-%s", base.ID, occStart.Format("20060102"))
		ev.Start = stamp(occStart, tz)
		ev.End = stamp(occStart.Add(duration), tz)
		out = append(out, ev)
	}
	return out, nil
}

// stamp serializes t according to the tz assignment: wall-clock digits with
// a (spurious) Z for the reinterpret sentinel, a genuine UTC instant
// otherwise.
func stamp(t time.Time, tz domain.Timezone) string {
	if tz == domain.TzReinterpretUTCToLocal {
		return t.Format("2006-01-02T15:04:05") + "Z"
	}
	return t.UTC().Format(time.RFC3339)
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

func icsID(uid string) string {
	return "fb-" + strings.TrimSuffix(uid, "@facebook.com")
}
