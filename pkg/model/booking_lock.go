package model

import "time"

// BookingLock is an advisory lock serializing booking creation for one
// slot. Its _id encodes the slot coordinates, so a duplicate-key error on
// insert means another request holds the slot. A TTL index on expires_at
// reaps locks abandoned by crashed processes.
type BookingLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
