package ingest

import (
	"fmt"
	"strings"
	"time"
)

// deadlineFormats covers the date shapes seen in Indian tender notices.
// Day-first numeric formats come before month-first.
var deadlineFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006 15:04",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2 January 2006 3:04 PM",
	"2 January 2006",
	"02 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// parseDeadline parses a tender deadline string. Date-only values resolve to
// end of day so a tender stays open through its closing date.
func parseDeadline(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty deadline text")
	}

	text = strings.NewReplacer("a.m.", "AM", "p.m.", "PM", " hrs", "", " Hrs", "").Replace(text)

	for _, format := range deadlineFormats {
		t, err := time.Parse(format, text)
		if err != nil {
			continue
		}
		if hasTimeComponent(format) {
			return t, nil
		}
		return toEndOfDay(t), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized deadline format: %q", text)
}

func hasTimeComponent(format string) bool {
	return strings.Contains(format, ":")
}

func toEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
