package dto

// EventsRequest are the query parameters of GET /api/v1/events.
type EventsRequest struct {
	ID      string `validate:"required"`
	TimeMin string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	TimeMax string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// RangeRequest are the query parameters of GET /api/v1/filters/range.
type RangeRequest struct {
	FilterID    string `validate:"required"`
	MinDate     string `validate:"required,datetime=2006-01-02"`
	TodayOffset int    `validate:"gte=0"`
	TotalDays   int    `validate:"gt=0"`
}

// RangeResponse wraps the calculated range; Range is null for an unknown
// filter id, which clients treat as "keep the current range".
type RangeResponse struct {
	FilterID string `json:"filterId"`
	Range    any    `json:"range"`
}
