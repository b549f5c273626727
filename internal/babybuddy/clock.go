package babybuddy

import (
	"fmt"
	"time"
)

// Layouts accepted for start/end/time/date service fields. Clock-only forms
// are combined with today's date.
var (
	instantLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	clockLayouts = []string{
		"15:04:05",
		"15:04",
	}
)

// DatetimeFromClock resolves a validated time field into a concrete instant.
// Time-of-day values are combined with now's date in now's location; values
// after now are rejected with ErrFutureTime.
func DatetimeFromClock(value string, now time.Time) (time.Time, error) {
	loc := now.Location()

	for _, layout := range instantLayouts {
		parsed, err := time.ParseInLocation(layout, value, loc)
		if err != nil {
			continue
		}
		return checkNotFuture(parsed, now)
	}

	for _, layout := range clockLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		combined := time.Date(
			now.Year(), now.Month(), now.Day(),
			parsed.Hour(), parsed.Minute(), parsed.Second(), 0,
			loc,
		)
		return checkNotFuture(combined, now)
	}

	return time.Time{}, fmt.Errorf("babybuddy: cannot parse %q as a time or timestamp", value)
}

func checkNotFuture(value, now time.Time) (time.Time, error) {
	if value.After(now) {
		return time.Time{}, ErrFutureTime
	}
	return value, nil
}
