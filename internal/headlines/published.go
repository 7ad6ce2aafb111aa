package headlines

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006, 03:04 PM, -0700 MST",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2006-01-02",
}

var relativeAge = regexp.MustCompile(`^(\d+|an?)\s*(second|sec|minute|min|hour|hr|day|week|month)s?\s+ago$`)

// ParsePublishedAt parses the publish time formats returned by NewsAPI, SerpAPI and RSS
// feeds, including relative values such as "3 hours ago" which are resolved against now.
func ParsePublishedAt(value string, now time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	lowered := strings.ToLower(value)
	switch lowered {
	case "just now", "now":
		return now, true
	case "yesterday":
		return now.Add(-24 * time.Hour), true
	}

	m := relativeAge.FindStringSubmatch(lowered)
	if m == nil {
		return time.Time{}, false
	}
	n := 1
	if m[1] != "a" && m[1] != "an" {
		parsed, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		n = parsed
	}

	var unit time.Duration
	switch m[2] {
	case "second", "sec":
		unit = time.Second
	case "minute", "min":
		unit = time.Minute
	case "hour", "hr":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	case "month":
		unit = 30 * 24 * time.Hour
	}
	if int64(n) > math.MaxInt64/int64(unit) {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(n) * unit), true
}

// AgeHours returns the age of a headline in hours, or nil when the publish time is unknown.
// Publish times in the future count as age zero.
func AgeHours(publishedAt string, now time.Time) *float64 {
	t, ok := ParsePublishedAt(publishedAt, now)
	if !ok {
		return nil
	}
	age := now.Sub(t).Hours()
	if age < 0 {
		age = 0
	}
	return &age
}
