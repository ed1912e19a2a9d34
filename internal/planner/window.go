package planner

import (
	"fmt"
	"time"
)

// Weekday numbers days Monday=0 through Sunday=6, the convention used in
// config files (DEPARTURE_DAYS=2,3 means Wednesday and Thursday).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return time.Weekday((int(d) + 1) % 7).String()
}

// TravelWindow is a span of whole months starting in Year. An EndMonth
// before StartMonth wraps into the following year.
type TravelWindow struct {
	Year               int
	StartMonth         time.Month
	EndMonth           time.Month
	Weekdays           []Weekday
	DurationDays       int
	ReturnWithinWindow bool
}

// Bounds returns the first and last calendar day of the window in UTC.
func (w TravelWindow) Bounds() (time.Time, time.Time) {
	first := time.Date(w.Year, w.StartMonth, 1, 0, 0, 0, 0, time.UTC)
	endYear := w.Year
	if w.EndMonth < w.StartMonth {
		endYear++
	}
	last := time.Date(endYear, w.EndMonth+1, 0, 0, 0, 0, 0, time.UTC)
	return first, last
}

func (w TravelWindow) Contains(day time.Time) bool {
	first, last := w.Bounds()
	return !day.Before(first) && !day.After(last)
}

func (w TravelWindow) acceptsWeekday(d Weekday) bool {
	for _, wd := range w.Weekdays {
		if wd == d {
			return true
		}
	}
	return false
}

func (w TravelWindow) Validate() error {
	if w.Year < 1 {
		return &ConfigurationError{Field: "year", Reason: "must be a positive year"}
	}
	if w.StartMonth < time.January || w.StartMonth > time.December {
		return &ConfigurationError{Field: "start_month", Reason: "must be between 1 and 12"}
	}
	if w.EndMonth < time.January || w.EndMonth > time.December {
		return &ConfigurationError{Field: "end_month", Reason: "must be between 1 and 12"}
	}
	if len(w.Weekdays) == 0 {
		return &ConfigurationError{Field: "departure_days", Reason: "at least one departure weekday is required"}
	}
	for _, d := range w.Weekdays {
		if d < Monday || d > Sunday {
			return &ConfigurationError{Field: "departure_days", Reason: fmt.Sprintf("weekday %d is outside 0-6 (Monday=0)", int(d))}
		}
	}
	if w.DurationDays <= 0 {
		return &ConfigurationError{Field: "trip_duration_days", Reason: "must be greater than zero"}
	}
	return nil
}

// ConfigurationError reports an unusable travel window or destination set.
// It is raised before any pricing call is made.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Field + ": " + e.Reason
}
