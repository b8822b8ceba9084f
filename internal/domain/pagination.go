package domain

import "time"

// DateLayout is the calendar-date format used for range filters and weather keys.
const DateLayout = "2006-01-02"

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based).
// Formula: (Page - 1) * PageSize.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// DateRange is an optional inclusive calendar-date window. It filters only when both
// bounds are set.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Active reports whether both bounds are set.
func (r DateRange) Active() bool { return r.Start != nil && r.End != nil }

// Validate rejects a range whose start is after its end.
func (r DateRange) Validate() error {
	if r.Active() && r.Start.After(*r.End) {
		return NewValidationError([]FieldError{{"start_time", "invalid date range: start is after end"}})
	}
	return nil
}

// Bounds returns the range as [from, to) instants: start of the first day up to the
// start of the day after the last one.
func (r DateRange) Bounds() (from, to time.Time) {
	from = truncateDay(*r.Start)
	to = truncateDay(*r.End).AddDate(0, 0, 1)
	return from, to
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
