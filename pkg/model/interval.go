package model

import (
	"fmt"

	"slotwise/pkg/timeslot"
)

// TimeInterval is a wall-clock availability window within one day, stored
// as "HH:MM" pairs in the schedule's timezone.
type TimeInterval struct {
	Start string `json:"start_time" bson:"start_time" validate:"required,hhmm"`
	End   string `json:"end_time" bson:"end_time" validate:"required,hhmm"`
}

// Minutes returns the interval boundaries as minutes since midnight,
// enforcing the start<end invariant at write time.
func (i TimeInterval) Minutes() (start, end int, err error) {
	start, err = timeslot.MinuteOfDay(i.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = timeslot.MinuteOfDay(i.End)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("%w: %s >= %s", timeslot.ErrInvertedClocks, i.Start, i.End)
	}
	return start, end, nil
}

// ValidateIntervals rejects any interval whose start is not strictly
// before its end. Violations are write-time errors, never silently dropped.
func ValidateIntervals(intervals []TimeInterval) error {
	for _, iv := range intervals {
		if _, _, err := iv.Minutes(); err != nil {
			return err
		}
	}
	return nil
}
