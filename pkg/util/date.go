package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// TimeRange resolves optional from/to strings. Missing bounds default to
// the last 24h ending now; a reversed range is swapped.
func TimeRange(fromS, toS string, now time.Time) (time.Time, time.Time) {
	to := ParseTimeDefault(toS, now)
	from := ParseTimeDefault(fromS, to.Add(-24*time.Hour))
	if from.After(to) {
		from, to = to, from
	}
	return from, to
}
