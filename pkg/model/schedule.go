package model

import "time"

// Schedule is a host's availability schedule. A host may own several, but
// exactly one is the default at any time; setting a new default clears the
// previous one (last-write-wins, enforced by the service, not the store).
type Schedule struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	HostID    string    `json:"host_id" bson:"host_id" validate:"required"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Timezone  string    `json:"timezone" bson:"timezone" validate:"required,timezone"`
	IsDefault bool      `json:"is_default" bson:"is_default"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// WeeklyHours is the recurring template for one day of the week,
// 0=Sunday through 6=Saturday. One document per (schedule, day); upserted.
type WeeklyHours struct {
	ID         string         `json:"id,omitempty" bson:"_id,omitempty"`
	ScheduleID string         `json:"schedule_id" bson:"schedule_id" validate:"required"`
	DayOfWeek  int            `json:"day_of_week" bson:"day_of_week" validate:"min=0,max=6"`
	IsEnabled  bool           `json:"is_enabled" bson:"is_enabled"`
	Intervals  []TimeInterval `json:"intervals" bson:"intervals" validate:"dive"`
}

// DateOverride replaces the weekly template for one calendar date. An
// empty interval list means the date is fully unavailable, regardless of
// the template. One document per (schedule, date); upserted.
type DateOverride struct {
	ID           string         `json:"id,omitempty" bson:"_id,omitempty"`
	ScheduleID   string         `json:"schedule_id" bson:"schedule_id" validate:"required"`
	SpecificDate string         `json:"specific_date" bson:"specific_date" validate:"required,datetime=2006-01-02"`
	Intervals    []TimeInterval `json:"intervals" bson:"intervals" validate:"dive"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type ScheduleUpdate struct {
	Name        string             `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Timezone    string             `json:"timezone,omitempty" validate:"omitempty,timezone"`
	IsDefault   *bool              `json:"is_default,omitempty"`
	WeeklyHours []WeeklyHoursInput `json:"weekly_hours,omitempty" validate:"omitempty,dive"`
}

// WeeklyHoursInput is the write shape for one day of the weekly template.
type WeeklyHoursInput struct {
	DayOfWeek int            `json:"day_of_week" validate:"min=0,max=6"`
	IsEnabled bool           `json:"is_enabled"`
	Intervals []TimeInterval `json:"intervals" validate:"dive"`
}
