package model

import "time"

// Location types form a closed set at the storage boundary so the engine
// never branches on the shape of the value.
const (
	LocationVideo    = "video"
	LocationPhone    = "phone"
	LocationInPerson = "in_person"
	LocationCustom   = "custom"
)

type EventType struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	HostID          string    `json:"host_id" bson:"host_id" validate:"required"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Slug            string    `json:"slug" bson:"slug" validate:"required,min=2,max=100,lowercase"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes" validate:"required,min=15,max=480"`
	Color           string    `json:"color,omitempty" bson:"color" validate:"omitempty,hexcolor"`
	Description     string    `json:"description,omitempty" bson:"description" validate:"omitempty,max=2000"`
	LocationType    string    `json:"location_type" bson:"location_type" validate:"required,oneof=video phone in_person custom"`
	LocationDetails string    `json:"location_details,omitempty" bson:"location_details" validate:"omitempty,max=500"`
	BufferBefore    int       `json:"buffer_before_minutes" bson:"buffer_before_minutes" validate:"min=0,max=480"`
	BufferAfter     int       `json:"buffer_after_minutes" bson:"buffer_after_minutes" validate:"min=0,max=480"`
	MinNoticeHours  int       `json:"min_notice_hours" bson:"min_notice_hours" validate:"min=0,max=720"`
	MaxDaysAhead    int       `json:"max_days_ahead" bson:"max_days_ahead" validate:"required,min=1,max=365"`
	IsActive        bool      `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type EventTypeUpdate struct {
	Name            string  `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Slug            string  `json:"slug,omitempty" validate:"omitempty,min=2,max=100,lowercase"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,min=15,max=480"`
	Color           string  `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	LocationType    string  `json:"location_type,omitempty" validate:"omitempty,oneof=video phone in_person custom"`
	LocationDetails *string `json:"location_details,omitempty" validate:"omitempty,max=500"`
	BufferBefore    *int    `json:"buffer_before_minutes,omitempty" validate:"omitempty,min=0,max=480"`
	BufferAfter     *int    `json:"buffer_after_minutes,omitempty" validate:"omitempty,min=0,max=480"`
	MinNoticeHours  *int    `json:"min_notice_hours,omitempty" validate:"omitempty,min=0,max=720"`
	MaxDaysAhead    *int    `json:"max_days_ahead,omitempty" validate:"omitempty,min=1,max=365"`
	IsActive        *bool   `json:"is_active,omitempty"`
}
