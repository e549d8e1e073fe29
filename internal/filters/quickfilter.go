// Package filters computes named quick-filter date ranges. Everything is
// expressed in integer day-offsets from a shared minDate anchor so the
// calculation stays decoupled from any slider or calendar widget state.
package filters

import "time"

// Range is a pair of inclusive day-offsets relative to minDate.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Known quick-filter identifiers.
const (
	FilterToday     = "today"
	FilterPast      = "past"
	FilterFuture    = "future"
	FilterNext3Days = "next3days"
	FilterNext7Days = "next7days"
	FilterWeekend   = "weekend"
)

// CalculateRange resolves filterID against a window of totalDays days
// anchored at minDate, with "today" sitting at todayOffset. An unknown
// filterID returns nil, which callers must treat as "leave the current
// range alone". All returned offsets are clamped to [0, totalDays].
func CalculateRange(filterID string, minDate time.Time, todayOffset, totalDays int) *Range {
	switch filterID {
	case FilterToday:
		return clamped(todayOffset, todayOffset, totalDays)
	case FilterPast:
		return clamped(0, todayOffset, totalDays)
	case FilterFuture:
		return clamped(todayOffset, totalDays, totalDays)
	case FilterNext3Days:
		return clamped(todayOffset, todayOffset+3, totalDays)
	case FilterNext7Days:
		return clamped(todayOffset, todayOffset+7, totalDays)
	case FilterWeekend:
		friday := todayOffset + daysUntilFriday(minDate.AddDate(0, 0, todayOffset).Weekday())
		return clamped(friday, friday+2, totalDays)
	default:
		return nil
	}
}

// daysUntilFriday is 0 on Friday and Saturday (the weekend is already
// underway), otherwise the number of days to the next Friday.
func daysUntilFriday(w time.Weekday) int {
	if w == time.Friday || w == time.Saturday {
		return 0
	}
	return (int(time.Friday) - int(w) + 7) % 7
}

func clamped(start, end, totalDays int) *Range {
	return &Range{
		Start: clamp(start, totalDays),
		End:   clamp(end, totalDays),
	}
}

func clamp(v, totalDays int) int {
	if v < 0 {
		return 0
	}
	if v > totalDays {
		return totalDays
	}
	return v
}
