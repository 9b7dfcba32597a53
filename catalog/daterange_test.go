package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/airbusgeo/geocube-sampler/service"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		s    string
		date time.Time
		g    Granularity
	}{
		{"2022", date(2022, 1, 1), Year},
		{"2022-06", date(2022, 6, 1), Month},
		{"2022/06", date(2022, 6, 1), Month},
		{"2022-06-15", date(2022, 6, 15), Day},
		{"2022-06-15T10:30:00Z", date(2022, 6, 15), Day},
		{"June 15, 2022", date(2022, 6, 15), Day},
	}
	for _, test := range tests {
		d, g, err := ParseDate(test.s)
		if err != nil {
			t.Errorf("%s: %v", test.s, err)
			continue
		}
		if !d.Equal(test.date) || g != test.g {
			t.Errorf("%s: expected %v (%d) found %v (%d)", test.s, test.date, test.g, d, g)
		}
	}

	if _, _, err := ParseDate("not a date"); !errors.Is(err, service.ErrInvalidFilterSpec) {
		t.Errorf("expected ErrInvalidFilterSpec, got %v", err)
	}
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		start, end string
		dr         DateRange
	}{
		{"2022", "2023", DateRange{date(2022, 1, 1), date(2023, 12, 31)}},
		{"2022-06", "2022-06", DateRange{date(2022, 6, 1), date(2022, 6, 30)}},
		{"2024-02", "2024-02", DateRange{date(2024, 2, 1), date(2024, 2, 29)}},
		{"2022-06-15", "2022-07-01", DateRange{date(2022, 6, 15), date(2022, 7, 1)}},
		{"2022", "2022", DateRange{date(2022, 1, 1), date(2022, 12, 31)}},
	}
	for _, test := range tests {
		dr, err := ParseDateRange(test.start, test.end)
		if err != nil {
			t.Errorf("%s/%s: %v", test.start, test.end, err)
			continue
		}
		if !dr.Start.Equal(test.dr.Start) || !dr.End.Equal(test.dr.End) {
			t.Errorf("%s/%s: expected %v found %v", test.start, test.end, test.dr, dr)
		}
	}

	if _, err := ParseDateRange("2023", "2022"); !errors.Is(err, service.ErrInvalidFilterSpec) {
		t.Errorf("expected ErrInvalidFilterSpec, got %v", err)
	}
	if dr, _ := ParseDateRange("2022", "2023"); dr.String() != "2022-01-01/2023-12-31" {
		t.Errorf("unexpected %s", dr.String())
	}
}
