package model

import "time"

// Booking status transitions are one-way: confirmed -> cancelled.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	CancelledByHost    = "host"
	CancelledByInvitee = "invitee"
)

type Booking struct {
	ID              string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EventTypeID     string     `json:"event_type_id" bson:"event_type_id" validate:"required"`
	HostID          string     `json:"host_id" bson:"host_id" validate:"required"`
	StartTime       time.Time  `json:"start_time" bson:"start_time" validate:"required"`
	EndTime         time.Time  `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	InviteeTimezone string     `json:"invitee_timezone" bson:"invitee_timezone" validate:"required,timezone"`
	InviteeName     string     `json:"invitee_name" bson:"invitee_name" validate:"required,min=2,max=100"`
	InviteeEmail    string     `json:"invitee_email" bson:"invitee_email" validate:"required,email"`
	Guests          []string   `json:"guests,omitempty" bson:"guests" validate:"omitempty,max=10,dive,email"`
	Status          string     `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty" validate:"omitempty,max=500"`
	CancelledBy     string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty" validate:"omitempty,oneof=host invitee"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BookingRequest is the public create shape: the engine derives end time,
// host and status itself and never trusts client-supplied slot lists.
type BookingRequest struct {
	EventTypeID  string    `json:"event_type_id" validate:"required"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	Timezone     string    `json:"timezone" validate:"required,timezone"`
	InviteeName  string    `json:"invitee_name" validate:"required,min=2,max=100"`
	InviteeEmail string    `json:"invitee_email" validate:"required,email"`
	Guests       []string  `json:"guests,omitempty" validate:"omitempty,max=10,dive,email"`
}

type CancelRequest struct {
	Reason      string `json:"reason,omitempty" validate:"omitempty,max=500"`
	CancelledBy string `json:"cancelled_by,omitempty" validate:"omitempty,oneof=host invitee"`
}

// MeetingNotes are host-side notes attached to a booking; upserted.
type MeetingNotes struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID string    `json:"booking_id" bson:"booking_id" validate:"required"`
	Content   string    `json:"content" bson:"content" validate:"required,max=10000"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
