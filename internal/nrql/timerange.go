package nrql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/util"
)

const absoluteLayout = "2006-01-02 15:04:00 -07:00"

var relativePattern = regexp.MustCompile(`(?i)^(\d+)\s*(m|mins?|minutes?|h|hrs?|hours?|d|days?)\s*(ago)?$`)

// TimeRange holds the rendered SINCE and UNTIL lines.
type TimeRange struct {
	Since string
	Until string
}

// ParseRelative parses "<n> <unit> [ago]" where unit is any spelling of
// minutes, hours or days. The returned unit is normalized to its plural
// long form.
func ParseRelative(value string) (amount int, unit string, ok bool) {
	m := relativePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0, "", false
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil || amount <= 0 {
		return 0, "", false
	}
	switch strings.ToLower(m[2])[0] {
	case 'm':
		unit = "minutes"
	case 'h':
		unit = "hours"
	default:
		unit = "days"
	}
	return amount, unit, true
}

// CompileTimeRange renders tp. ok is false only when a relative period
// cannot be parsed, which makes the whole query invalid.
func (c *Compiler) CompileTimeRange(tp model.TimePeriod) (tr TimeRange, ok bool) {
	if tp.Mode == model.TimeModeRelative {
		amount, unit, valid := ParseRelative(tp.Relative)
		if !valid {
			return TimeRange{}, false
		}
		return TimeRange{
			Since: fmt.Sprintf("SINCE %d %s ago", amount, unit),
			Until: "UNTIL now",
		}, true
	}

	loc := c.location()
	now := c.now().In(loc)
	since := c.absolute(tp.Since, now.Add(-time.Hour), loc)
	until := c.absolute(tp.Until, now, loc)
	return TimeRange{
		Since: fmt.Sprintf("SINCE '%s'", since),
		Until: fmt.Sprintf("UNTIL '%s'", until),
	}, true
}

// absolute formats value, or fallback when value is blank or not a
// datetime. Seconds are always rendered as 00.
func (c *Compiler) absolute(value string, fallback time.Time, loc *time.Location) string {
	if value = strings.TrimSpace(value); value != "" {
		if t, err := util.ParseLocal(value, loc); err == nil {
			return t.Format(absoluteLayout)
		}
	}
	return fallback.Format(absoluteLayout)
}
