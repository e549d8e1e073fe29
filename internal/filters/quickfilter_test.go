package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRange(t *testing.T) {
	// 2026-01-02 is a Friday.
	minDate := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		filterID    string
		todayOffset int
		totalDays   int
		want        *Range
	}{
		{"today", FilterToday, 10, 30, &Range{10, 10}},
		{"past", FilterPast, 10, 30, &Range{0, 10}},
		{"future", FilterFuture, 10, 30, &Range{10, 30}},
		{"next3days", FilterNext3Days, 10, 30, &Range{10, 13}},
		{"next7days", FilterNext7Days, 10, 30, &Range{10, 17}},
		{"next7days clamps at window end", FilterNext7Days, 27, 30, &Range{27, 30}},
		{"weekend on friday starts now", FilterWeekend, 0, 30, &Range{0, 2}},
		{"weekend on saturday still underway", FilterWeekend, 1, 30, &Range{1, 3}},
		{"weekend on sunday jumps to next friday", FilterWeekend, 2, 30, &Range{7, 9}},
		{"weekend on monday", FilterWeekend, 3, 30, &Range{7, 9}},
		{"weekend clamps at window end", FilterWeekend, 29, 30, &Range{29, 30}},
		{"unknown filter", "bogus", 10, 30, nil},
		{"empty filter", "", 10, 30, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateRange(tt.filterID, minDate, tt.todayOffset, tt.totalDays)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateRangeClampsNegativeOffsets(t *testing.T) {
	minDate := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)

	got := CalculateRange(FilterPast, minDate, -5, 30)
	assert.Equal(t, &Range{0, 0}, got)
}

func TestDaysUntilFriday(t *testing.T) {
	assert.Equal(t, 0, daysUntilFriday(time.Friday))
	assert.Equal(t, 0, daysUntilFriday(time.Saturday))
	assert.Equal(t, 5, daysUntilFriday(time.Sunday))
	assert.Equal(t, 4, daysUntilFriday(time.Monday))
	assert.Equal(t, 1, daysUntilFriday(time.Thursday))
}
