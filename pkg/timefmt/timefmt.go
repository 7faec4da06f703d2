// Package timefmt renders timestamps in the portal's display layout
// (DD-MM-YYYY HH:mm:ss) and parses the calendar-day filters used by list endpoints.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the display layout used on pages, JSON view models and exports.
const Layout = "02-01-2006 15:04:05"

const (
	isoDay     = "2006-01-02"
	displayDay = "02-01-2006"
)

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "Asia/Ho_Chi_Minh"

var location = loadLocation(DefaultTimezone)

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata can be missing in slim containers; Vietnam has no DST
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

// SetTimezone switches the display timezone. Called once at startup.
func SetTimezone(name string) {
	if name == "" {
		name = DefaultTimezone
	}
	location = loadLocation(name)
}

// Location returns the display timezone.
func Location() *time.Location {
	return location
}

// Format renders t in the display layout and timezone.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(location).Format(Layout)
}

// FormatPtr is Format for optional timestamps.
func FormatPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Format(*t)
}

// DayRange parses a calendar day given as YYYY-MM-DD or DD-MM-YYYY and returns the
// half-open range [start, end) covering that day in the display timezone.
func DayRange(day string) (time.Time, time.Time, error) {
	day = strings.TrimSpace(day)
	for _, layout := range []string{isoDay, displayDay} {
		start, err := time.ParseInLocation(layout, day, location)
		if err == nil {
			return start, start.AddDate(0, 0, 1), nil
		}
	}
	return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or DD-MM-YYYY", day)
}
