// Package resolver computes the effective availability of a schedule for
// concrete calendar dates. Resolution order for a date: a date override
// wins outright (an empty override means fully unavailable), otherwise the
// weekly template for that day of week applies, and a disabled or missing
// day yields no availability.
package resolver

import (
	"context"
	"fmt"

	"slotwise/internal/schedules/repository"
	"slotwise/pkg/model"
	"slotwise/pkg/timeslot"
)

// DayAvailability is the resolved availability of one calendar date.
type DayAvailability struct {
	Date         string               `json:"date"`
	DayOfWeek    int                  `json:"day_of_week"`
	Intervals    []model.TimeInterval `json:"intervals"`
	FromOverride bool                 `json:"from_override"`
}

// Available reports whether the date has any open interval.
func (d *DayAvailability) Available() bool {
	return len(d.Intervals) > 0
}

type Resolver struct {
	weekly    repository.WeeklyHoursRepository
	overrides repository.DateOverrideRepository
}

func New(weekly repository.WeeklyHoursRepository, overrides repository.DateOverrideRepository) *Resolver {
	return &Resolver{
		weekly:    weekly,
		overrides: overrides,
	}
}

// ResolveDay resolves a single date.
func (r *Resolver) ResolveDay(ctx context.Context, scheduleID string, date string) (*DayAvailability, error) {
	parsed, err := timeslot.ParseDate(date)
	if err != nil {
		return nil, err
	}
	dow := timeslot.DayOfWeek(parsed)

	ov, err := r.overrides.FindByDate(ctx, scheduleID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve override for %s: %w", date, err)
	}
	if ov != nil {
		return &DayAvailability{
			Date:         date,
			DayOfWeek:    dow,
			Intervals:    ov.Intervals,
			FromOverride: true,
		}, nil
	}

	wh, err := r.weekly.FindDay(ctx, scheduleID, dow)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve weekly hours for %s: %w", date, err)
	}

	day := &DayAvailability{Date: date, DayOfWeek: dow}
	if wh != nil && wh.IsEnabled {
		day.Intervals = wh.Intervals
	}
	return day, nil
}

// ResolveRange resolves every date in [fromDate, toDate] with two queries,
// one for the weekly template and one for the overrides in range.
func (r *Resolver) ResolveRange(ctx context.Context, scheduleID string, fromDate, toDate string) ([]*DayAvailability, error) {
	from, err := timeslot.ParseDate(fromDate)
	if err != nil {
		return nil, err
	}
	to, err := timeslot.ParseDate(toDate)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range %s..%s is inverted", timeslot.ErrBadDate, fromDate, toDate)
	}

	template, err := r.weekly.FindBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly template: %w", err)
	}
	byDay := make(map[int]*model.WeeklyHours, len(template))
	for _, wh := range template {
		byDay[wh.DayOfWeek] = wh
	}

	overrides, err := r.overrides.FindInRange(ctx, scheduleID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	byDate := make(map[string]*model.DateOverride, len(overrides))
	for _, ov := range overrides {
		byDate[ov.SpecificDate] = ov
	}

	var days []*DayAvailability
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(timeslot.DateLayout)
		dow := timeslot.DayOfWeek(d)

		if ov, ok := byDate[date]; ok {
			days = append(days, &DayAvailability{
				Date:         date,
				DayOfWeek:    dow,
				Intervals:    ov.Intervals,
				FromOverride: true,
			})
			continue
		}

		day := &DayAvailability{Date: date, DayOfWeek: dow}
		if wh, ok := byDay[dow]; ok && wh.IsEnabled {
			day.Intervals = wh.Intervals
		}
		days = append(days, day)
	}

	return days, nil
}
