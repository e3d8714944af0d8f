// Package calendar computes day and week boundaries in a given location.
package calendar

import "time"

// WeekStart is the first day of a week.
const WeekStart = time.Sunday

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last representable instant of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns midnight of the WeekStart day on or before t in loc.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	offset := (int(day.Weekday()) - int(WeekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// EndOfWeek returns the last instant of the week containing t in loc.
func EndOfWeek(t time.Time, loc *time.Location) time.Time {
	return StartOfWeek(t, loc).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// Range is a closed time interval.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within [Start, End].
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Today returns [start, end] of the day containing now.
func Today(now time.Time, loc *time.Location) Range {
	return Range{Start: StartOfDay(now, loc), End: EndOfDay(now, loc)}
}

// ThisWeek returns [start, end] of the week containing now.
func ThisWeek(now time.Time, loc *time.Location) Range {
	return Range{Start: StartOfWeek(now, loc), End: EndOfWeek(now, loc)}
}

// Past returns [Unix epoch, end of yesterday].
func Past(now time.Time, loc *time.Location) Range {
	return Range{
		Start: time.Unix(0, 0).In(loc),
		End:   StartOfDay(now, loc).Add(-time.Nanosecond),
	}
}

// ParseDate accepts a yyyy-MM-dd date (midnight in loc) or an RFC 3339 timestamp.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
