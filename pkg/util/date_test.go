package util

import (
    "testing"
    "time"
)

func TestParseDateDay(t *testing.T) {
    got, err := ParseDate("2024-02-29")
    if err != nil {
        t.Fatalf("unexpected error %v", err)
    }
    want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("unexpected date %v", got)
    }
}

func TestParseDateTruncatesDatetime(t *testing.T) {
    for _, s := range []string{"2024-02-29 15:04:05", "2024-02-29T23:10:10Z"} {
        got, err := ParseDate(s)
        if err != nil {
            t.Fatalf("%s: unexpected error %v", s, err)
        }
        if FormatDate(got) != "2024-02-29" || got.Hour() != 0 {
            t.Fatalf("%s: unexpected date %v", s, got)
        }
    }
}

func TestParseDateInvalid(t *testing.T) {
    for _, s := range []string{"", "29/02/2024", "2024-13-01"} {
        if _, err := ParseDate(s); err == nil {
            t.Fatalf("%q: expected error", s)
        }
    }
}
