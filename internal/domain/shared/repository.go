package shared

import "time"

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 100,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// TimeRange is an inclusive [Start, End] interval
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange validates and builds an inclusive time range
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, NewInvalidInputError("Start and end must both be set")
	}
	if end.Before(start) {
		return TimeRange{}, NewInvalidInputError("End must not be before start")
	}
	return TimeRange{Start: start, End: end}, nil
}

// DayRange returns [00:00:00.000, 23:59:59.999] of day in loc
func DayRange(day time.Time, loc *time.Location) TimeRange {
	if loc == nil {
		loc = time.Local
	}
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	end := time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc).Add(-time.Millisecond)
	return TimeRange{Start: start, End: end}
}

// Contains reports whether t lies within the range, bounds included
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
