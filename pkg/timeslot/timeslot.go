// Package timeslot holds the wall-clock arithmetic shared by the schedule
// resolver, the slot generator and the booking validator: "HH:MM" parsing,
// minutes-since-midnight conversion, the single day-of-week boundary
// function, and DST-aware resolution of local wall-clock times to UTC.
package timeslot

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	// MinutesPerDay is the exclusive upper bound for a minute-of-day value.
	MinutesPerDay = 24 * 60

	// DateLayout is the calendar-date wire format used throughout the engine.
	DateLayout = "2006-01-02"

	// ClockLayout is the wall-clock wire format for interval boundaries.
	ClockLayout = "15:04"
)

var (
	ErrBadClock       = errors.New("time must be in HH:MM 24-hour format")
	ErrBadDate        = errors.New("date must be in YYYY-MM-DD format")
	ErrNonexistent    = errors.New("local time does not exist on this date (DST gap)")
	ErrAmbiguous      = errors.New("local time is ambiguous on this date (DST overlap)")
	ErrUnknownZone    = errors.New("unknown IANA timezone")
	ErrInvertedClocks = errors.New("start time must be before end time")
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// MinuteOfDay converts an "HH:MM" wall-clock string to minutes since
// midnight. Only the canonical zero-padded 24-hour form is accepted. It
// is the one place the engine parses clock strings, so the start<end
// invariant can be tested without string slicing at call sites.
func MinuteOfDay(clock string) (int, error) {
	if !clockPattern.MatchString(clock) {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	hh := int(clock[0]-'0')*10 + int(clock[1]-'0')
	mm := int(clock[3]-'0')*10 + int(clock[4]-'0')
	return hh*60 + mm, nil
}

// FormatMinute renders minutes since midnight back to "HH:MM".
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseDate parses a "YYYY-MM-DD" calendar date with no time component.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, date)
	}
	return d, nil
}

// DayOfWeek maps a calendar date to the storage day-of-week convention,
// 0=Sunday through 6=Saturday. Every conversion between the calendar
// library and stored weekly hours goes through this function.
func DayOfWeek(date time.Time) int {
	return int(date.Weekday())
}

// LoadLocation resolves an IANA timezone name.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	return loc, nil
}

// ResolveLocal converts a wall-clock minute-of-day on a calendar date in
// loc to a UTC instant. Wall clocks that do not exist on that date (spring
// forward) return ErrNonexistent; wall clocks that occur twice (fall back)
// return ErrAmbiguous. Callers generating slots skip both rather than
// guessing an offset.
func ResolveLocal(date time.Time, minute int, loc *time.Location) (time.Time, error) {
	y, m, d := date.Date()
	hh, mm := minute/60, minute%60

	// Candidate UTC offsets are the ones in force just before and just
	// after the date; a DST transition mid-day yields two distinct values.
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	_, offBefore := dayStart.Zone()
	_, offAfter := dayStart.Add(36 * time.Hour).Zone()

	naive := time.Date(y, m, d, hh, mm, 0, 0, time.UTC)

	var matches []time.Time
	for _, off := range uniqueOffsets(offBefore, offAfter) {
		utc := naive.Add(-time.Duration(off) * time.Second)
		local := utc.In(loc)
		if local.Year() == y && local.Month() == m && local.Day() == d &&
			local.Hour() == hh && local.Minute() == mm {
			matches = append(matches, utc)
		}
	}

	switch len(matches) {
	case 0:
		return time.Time{}, fmt.Errorf("%w: %s %s in %s",
			ErrNonexistent, date.Format(DateLayout), FormatMinute(minute), loc)
	case 1:
		return matches[0], nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s %s in %s",
			ErrAmbiguous, date.Format(DateLayout), FormatMinute(minute), loc)
	}
}

func uniqueOffsets(offs ...int) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, off := range offs {
		if _, ok := seen[off]; ok {
			continue
		}
		seen[off] = struct{}{}
		out = append(out, off)
	}
	return out
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Adjacent intervals (aEnd == bStart) do not.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
