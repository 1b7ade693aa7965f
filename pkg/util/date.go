package util

import (
    "fmt"
    "strings"
    "time"
)

// DateLayout is the calendar-day layout used by datasets and request bodies.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
    DateLayout,
    "2006-01-02 15:04:05",
    time.RFC3339,
    time.RFC3339Nano,
}

// ParseDate parses a day-granularity date. Datetime inputs are accepted and
// truncated to their calendar day in UTC.
func ParseDate(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Time{}, fmt.Errorf("empty date")
    }
    for _, layout := range dateLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            y, m, d := t.Date()
            return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
        }
    }
    return time.Time{}, fmt.Errorf("invalid date %q, want %s", s, DateLayout)
}

// FormatDate renders t as a calendar day.
func FormatDate(t time.Time) string {
    return t.Format(DateLayout)
}
