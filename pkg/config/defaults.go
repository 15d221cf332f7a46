package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "slotwise"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultHostIDValue identifies the single fixed actor; the engine has
	// no authentication layer.
	DefaultHostIDValue = "default-host"

	DefaultTimezoneValue = "Asia/Kolkata"
	DefaultDayStartValue = "09:00"
	DefaultDayEndValue   = "17:00"

	// DefaultSlotStrideCapMin caps the increment between candidate slot
	// starts: stride = min(cap, event duration).
	DefaultSlotStrideCapMin = 30

	DefaultBookingLockTTL = 10 * time.Second

	// MaxBufferMinutes bounds event-type buffers at write time, which in
	// turn bounds how far the conflict check must widen its range query.
	MaxBufferMinutes = 480

	DefaultPaginationLimit = 100

	DefaultKafkaTopic = "booking-events"
)
