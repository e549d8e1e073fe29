// Package timezone finalizes each event's provisional (start, end, tz)
// triple once geocoding has resolved its location.
//
// Most scraped sources know the correct local wall-clock time but serialize
// it with a spurious UTC suffix; real APIs emit accurate instants that only
// need a zone label. The sentinel in CmfEvent.TZ records which case an
// adapter produced, and ResolveEvent applies the matching transition
// exactly once.
package timezone

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

// IsValidIANA reports whether name loads from the zone database.
func IsValidIANA(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// ReinterpretAsZone re-anchors the wall-clock digits of iso (as parsed in
// UTC) into loc, without any arithmetic shift of the clock reading:
// "17:00 stamped Z" becomes "17:00 in loc".
func ReinterpretAsZone(iso string, loc *time.Location) (string, error) {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return "", fmt.Errorf("timezone.ReinterpretAsZone(): parse %q: %w", iso, err)
	}
	u := t.UTC()
	re := time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), loc)
	return re.Format(time.RFC3339), nil
}

// ReinterpretSecs applies the same digit re-anchoring to an epoch-seconds
// cache: the instant's UTC digits are read back as a wall clock in loc.
func ReinterpretSecs(secs int64, loc *time.Location) int64 {
	u := time.Unix(secs, 0).UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), 0, loc).Unix()
}

// ResolveEvent runs the per-event state machine. It mutates ev exactly once
// and must be called only after the geocoding pass has had its chance to
// populate ev.ResolvedLocation.
//
// Invariant violations (UNKNOWN_TZ before any location lookup, missing TZ,
// unparseable times under the reinterpret sentinel) return errors; they are
// pipeline-ordering bugs, never data to tolerate.
func ResolveEvent(log *slog.Logger, ev *domain.CmfEvent) error {
	op := "timezone.ResolveEvent()"
	elog := log.With(slog.String("op", op), slog.String("eventID", ev.ID))

	switch {
	case ev.TZ == "":
		return fmt.Errorf("%s: event %q has no timezone assignment", op, ev.ID)

	case ev.TZ == domain.TzUnknown:
		if ev.ResolvedLocation == nil {
			return fmt.Errorf("%s: event %q is UNKNOWN_TZ before any location lookup", op, ev.ID)
		}
		// Terminal; an earlier pass already gave up on this event.

	case ev.TZ == domain.TzReinterpretUTCToLocal:
		if err := resolveReinterpret(elog, ev); err != nil {
			return err
		}

	case ev.TZ == domain.TzTimeIsAccurate:
		resolveAccurate(elog, ev)

	default:
		// Concrete zone assigned by the adapter; pass through, but flag
		// strings the zone database does not know.
		if !IsValidIANA(string(ev.TZ)) {
			elog.Warn("event carries unrecognized timezone name", slog.String("tz", string(ev.TZ)))
		}
	}

	fillEpochSecs(elog, ev)
	return nil
}

func resolveReinterpret(log *slog.Logger, ev *domain.CmfEvent) error {
	op := "timezone.resolveReinterpret()"

	rl := ev.ResolvedLocation
	if rl == nil {
		// An event should never reach resolution ungeocoded.
		log.Error("reinterpret sentinel with no resolved location")
		ev.TZ = domain.TzUnknown
		return nil
	}

	if rl.LocationTZ == domain.TzUnknown || !rl.LocationTZ.IsZone() {
		ev.TZ = domain.TzUnknown
		return nil
	}

	loc, err := time.LoadLocation(string(rl.LocationTZ))
	if err != nil {
		return fmt.Errorf("%s: event %q: load zone %q: %w", op, ev.ID, rl.LocationTZ, err)
	}

	start, err := ReinterpretAsZone(ev.Start, loc)
	if err != nil {
		return fmt.Errorf("%s: event %q: %w", op, ev.ID, err)
	}
	end, err := ReinterpretAsZone(ev.End, loc)
	if err != nil {
		return fmt.Errorf("%s: event %q: %w", op, ev.ID, err)
	}

	ev.Start = start
	ev.End = end
	if ev.StartSecs != 0 {
		ev.StartSecs = ReinterpretSecs(ev.StartSecs, loc)
	}
	if ev.EndSecs != 0 {
		ev.EndSecs = ReinterpretSecs(ev.EndSecs, loc)
	}
	ev.TZ = rl.LocationTZ
	return nil
}

func resolveAccurate(log *slog.Logger, ev *domain.CmfEvent) {
	rl := ev.ResolvedLocation
	if rl == nil {
		log.Error("accurate-time sentinel with no resolved location")
		ev.TZ = domain.TzUnknown
		return
	}
	if rl.LocationTZ.IsZone() {
		// The instant is already correct; only the display zone changes.
		ev.TZ = rl.LocationTZ
		return
	}
	// Zone unknown: ambiguous but not wrong, leave the sentinel in place.
}

// fillEpochSecs derives the epoch caches from Start/End when unset. Set
// values are never overwritten.
func fillEpochSecs(log *slog.Logger, ev *domain.CmfEvent) {
	if ev.StartSecs == 0 && ev.Start != "" {
		if t, err := time.Parse(time.RFC3339, ev.Start); err == nil {
			ev.StartSecs = t.Unix()
		} else {
			log.Warn("cannot derive startSecs", sl.Err(err))
		}
	}
	if ev.EndSecs == 0 && ev.End != "" {
		if t, err := time.Parse(time.RFC3339, ev.End); err == nil {
			ev.EndSecs = t.Unix()
		} else {
			log.Warn("cannot derive endSecs", sl.Err(err))
		}
	}
}
