package utils

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used across the pipeline.
const (
	DayLayout     = "2006-01-02"
	GDELTLayout   = "20060102150405"
	CompactLayout = "20060102"
)

// Layouts accepted by ParseDay, most specific first.
var dayLayouts = []string{
	DayLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"20060102T150405Z",
	GDELTLayout,
	CompactLayout,
}

// FormatDay formats t as "2006-01-02" in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// FormatGDELT formats t as the GDELT DOC API datetime ("20060102150405") in UTC.
func FormatGDELT(t time.Time) string {
	return t.UTC().Format(GDELTLayout)
}

// FormatCompact formats t as "20060102" in UTC.
func FormatCompact(t time.Time) string {
	return t.UTC().Format(CompactLayout)
}

// TruncateDay returns midnight UTC of t's calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a date or timestamp in any of the supported layouts and
// truncates it to the calendar day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// AddDays shifts t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
