package events

import (
	"context"

	"slotwise/pkg/kafka"
	"slotwise/pkg/logger"
	"slotwise/pkg/model"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"

	sourceService = "slotwise"
)

// EventPublisher emits booking lifecycle events. Publishing happens after
// the owning transaction commits, so a failed publish never rolls back a
// booking; it is logged and dropped.
type EventPublisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingCancelled(ctx context.Context, booking *model.Booking)
}

type KafkaPublisher struct {
	producer *kafka.Producer
	logger   *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		logger:   log,
	}
}

func (p *KafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCreated, booking)
}

func (p *KafkaPublisher) BookingCancelled(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, EventBookingCancelled, booking)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, booking *model.Booking) {
	// Keyed by host so one calendar's events stay in order on a partition.
	msg := kafka.NewMessage().
		WithKey(booking.HostID).
		WithValue(booking).
		WithEventType(eventType).
		WithSource(sourceService).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.logger.Error("failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err)
		return
	}

	p.logger.Debug("booking event published",
		"event_type", eventType,
		"booking_id", booking.ID)
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) BookingCreated(ctx context.Context, booking *model.Booking)   {}
func (NoopPublisher) BookingCancelled(ctx context.Context, booking *model.Booking) {}
