package service

import (
	"context"
	"time"

	"slotwise/internal/slots"
	apperrors "slotwise/pkg/errors"
	"slotwise/pkg/timeslot"
)

// AvailableDates lists the calendar dates within one month, in the
// schedule's timezone, on which the event type has any availability at
// all. The month is clamped to the bookable window: dates before the
// minimum notice elapses or past the lookahead horizon are excluded at
// day granularity. Dates are not filtered by remaining slots; a fully
// booked day still appears here and resolves to an empty slot list.
func (s *bookingService) AvailableDates(ctx context.Context, eventTypeID string, year, month int) ([]string, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.InvalidInput("Month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, apperrors.InvalidInput("Year is out of range")
	}

	eventType, err := s.loadActiveEventType(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}

	schedule, loc, err := s.hostSchedule(ctx, eventType.HostID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(loc)
	earliest := now.Add(time.Duration(eventType.MinNoticeHours) * time.Hour)
	latest := now.AddDate(0, 0, eventType.MaxDaysAhead)

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, -1)

	from := monthStart
	if earliestDay := time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, loc); earliestDay.After(from) {
		from = earliestDay
	}
	to := monthEnd
	if latestDay := time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, loc); latestDay.Before(to) {
		to = latestDay
	}
	if to.Before(from) {
		return []string{}, nil
	}

	fromDate := from.Format(timeslot.DateLayout)
	toDate := to.Format(timeslot.DateLayout)

	days, err := s.resolver.ResolveRange(ctx, schedule.ID, fromDate, toDate)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve availability range",
			"schedule_id", schedule.ID,
			"from", fromDate,
			"to", toDate,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to resolve availability", err)
	}

	dates := make([]string, 0, len(days))
	for _, day := range days {
		if day.Available() {
			dates = append(dates, day.Date)
		}
	}
	return dates, nil
}

// AvailableSlots generates the bookable slots for one event type on one
// date. Slots already taken by confirmed bookings (expanded by their
// buffers), slots violating the minimum notice and slots past the
// lookahead horizon are all excluded.
func (s *bookingService) AvailableSlots(ctx context.Context, eventTypeID, date string) ([]slots.Slot, error) {
	if _, err := timeslot.ParseDate(date); err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	eventType, err := s.loadActiveEventType(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}

	schedule, loc, err := s.hostSchedule(ctx, eventType.HostID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	lastDate := now.AddDate(0, 0, eventType.MaxDaysAhead).Format(timeslot.DateLayout)
	if date > lastDate {
		return []slots.Slot{}, nil
	}

	day, err := s.resolver.ResolveDay(ctx, schedule.ID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve availability",
			"schedule_id", schedule.ID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to resolve availability", err)
	}
	if !day.Available() {
		return []slots.Slot{}, nil
	}

	dayStart, dayEnd, err := localDayBounds(date, loc)
	if err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	busy, err := s.busyWindows(ctx, eventType.HostID, dayStart, dayEnd, "")
	if err != nil {
		return nil, err
	}

	windows := make([]slots.Window, len(busy))
	for i, w := range busy {
		windows[i] = slots.Window{Start: w.start, End: w.end}
	}

	generated, err := slots.Generate(
		slots.DayInput{
			Date:      date,
			Intervals: day.Intervals,
			Location:  loc,
		},
		slots.Params{
			DurationMinutes:     eventType.DurationMinutes,
			StrideCapMinutes:    s.cfg.SlotStrideCapMin,
			BufferBeforeMinutes: eventType.BufferBefore,
			BufferAfterMinutes:  eventType.BufferAfter,
			NotBefore:           now.Add(time.Duration(eventType.MinNoticeHours) * time.Hour),
			Busy:                windows,
		},
	)
	if err != nil {
		return nil, apperrors.Internal("Failed to generate slots", err)
	}
	return generated, nil
}

// localDayBounds returns the UTC instants bounding a local calendar date.
// time.Date normalizes across DST so the bounds are exact even when
// local midnight does not exist.
func localDayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation(timeslot.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC(), nil
}
