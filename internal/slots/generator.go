// Package slots generates bookable slots from resolved day availability.
// The generator is pure: callers resolve the schedule, collect busy
// windows and fix the clock, so every case is table-testable.
package slots

import (
	"time"

	"slotwise/pkg/model"
	"slotwise/pkg/timeslot"
)

// Window is a half-open busy interval in UTC. Callers expand each booking
// by its event type's buffers before passing it in.
type Window struct {
	Start time.Time
	End   time.Time
}

// Slot is one bookable candidate. Times are UTC instants; StartLocal is
// the wall clock in the schedule's timezone for display.
type Slot struct {
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	StartLocal string    `json:"start_local"`
}

// DayInput is one calendar date's resolved availability.
type DayInput struct {
	Date      string
	Intervals []model.TimeInterval
	Location  *time.Location
}

// Params fixes the generation policy for one event type. The buffer
// minutes expand each candidate before the busy check, mirroring how a
// booking of this event type is expanded when it is validated.
type Params struct {
	DurationMinutes     int
	StrideCapMinutes    int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	NotBefore           time.Time // earliest allowed slot start, UTC
	Busy                []Window
}

// Stride is the increment between candidate slot starts: short meetings
// start on the cap boundary, meetings shorter than the cap pack back to
// back.
func Stride(capMinutes, durationMinutes int) int {
	if durationMinutes < capMinutes {
		return durationMinutes
	}
	return capMinutes
}

// Generate walks the day's intervals and returns the surviving slots in
// ascending order. A slot survives when it fits entirely inside its
// interval, its local start exists unambiguously on the date (DST gaps and
// overlaps are skipped, never guessed), it starts at or after NotBefore,
// and its buffer-expanded window overlaps no busy window.
func Generate(day DayInput, p Params) ([]Slot, error) {
	date, err := timeslot.ParseDate(day.Date)
	if err != nil {
		return nil, err
	}

	stride := Stride(p.StrideCapMinutes, p.DurationMinutes)
	duration := time.Duration(p.DurationMinutes) * time.Minute
	padBefore := time.Duration(p.BufferBeforeMinutes) * time.Minute
	padAfter := time.Duration(p.BufferAfterMinutes) * time.Minute

	var out []Slot
	for _, iv := range day.Intervals {
		startMin, endMin, err := iv.Minutes()
		if err != nil {
			return nil, err
		}

		for m := startMin; m+p.DurationMinutes <= endMin; m += stride {
			startUTC, err := timeslot.ResolveLocal(date, m, day.Location)
			if err != nil {
				continue
			}
			if startUTC.Before(p.NotBefore) {
				continue
			}

			endUTC := startUTC.Add(duration)
			if overlapsAny(startUTC.Add(-padBefore), endUTC.Add(padAfter), p.Busy) {
				continue
			}

			out = append(out, Slot{
				StartTime:  startUTC,
				EndTime:    endUTC,
				StartLocal: timeslot.FormatMinute(m),
			})
		}
	}

	return out, nil
}

func overlapsAny(start, end time.Time, busy []Window) bool {
	for _, w := range busy {
		if timeslot.Overlaps(start, end, w.Start, w.End) {
			return true
		}
	}
	return false
}
