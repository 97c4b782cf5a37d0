package util

import (
	"fmt"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// MinuteLayout is the zone-less datetime shape used by absolute time periods.
const MinuteLayout = "2006-01-02T15:04"

var localLayouts = []string{MinuteLayout, "2006-01-02T15:04:05"}

// ParseLocal parses a zone-less "YYYY-MM-DDTHH:mm" datetime (seconds
// optional) as wall-clock time in loc.
func ParseLocal(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid local datetime: %s", value)
}

// ParseTimeFlexible accepts RFC 3339 (with or without fractional seconds),
// epoch milliseconds, or any other layout dateparse recognizes, read as UTC
// when it carries no zone. The result is UTC.
func ParseTimeFlexible(timeStr string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, timeStr); err == nil {
		return t.UTC(), nil
	}
	if ms, err := strconv.ParseInt(timeStr, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if t, err := dateparse.ParseIn(timeStr, time.UTC); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
}
