package catalog

import (
	"strings"
	"time"

	"github.com/airbusgeo/geocube-sampler/service"
	"github.com/araddon/dateparse"
)

// Granularity of a date
type Granularity int

const (
	Day Granularity = iota
	Month
	Year
)

// DateRange is an inclusive range of days
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseDate parses "YYYY", "YYYY-MM" or a full date (any format supported by dateparse).
// The date is truncated to the day, in UTC.
func ParseDate(s string) (time.Time, Granularity, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006", s); err == nil {
		return t, Year, nil
	}
	for _, layout := range []string{"2006-01", "2006/01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, Month, nil
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, Day, service.Errorf(service.ErrInvalidFilterSpec, "unable to parse date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), Day, nil
}

// endOfPeriod returns the last day of the year or the month starting at t
func endOfPeriod(t time.Time, g Granularity) time.Time {
	switch g {
	case Year:
		return t.AddDate(1, 0, -1)
	case Month:
		return t.AddDate(0, 1, -1)
	}
	return t
}

// ParseDateRange parses the start and end dates.
// The start is the first day of its period ("2022" => 2022-01-01, "2022-06" => 2022-06-01).
// A year or a month end is the last day of its period ("2023" => 2023-12-31), a full date end is exact.
func ParseDateRange(start, end string) (DateRange, error) {
	s, _, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, g, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	dr := DateRange{Start: s, End: endOfPeriod(e, g)}
	if dr.End.Before(dr.Start) {
		return DateRange{}, service.Errorf(service.ErrInvalidFilterSpec, "start date (%s) is after end date (%s)", start, end)
	}
	return dr, nil
}

func (dr DateRange) String() string {
	return dr.Start.Format("2006-01-02") + "/" + dr.End.Format("2006-01-02")
}
