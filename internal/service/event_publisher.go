package service

import (
	"context"

	"clinic-practice-api/internal/domain/entity"
)

// EventPublisher pushes appointment state changes to clinic UIs. Delivery
// is best effort: callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.AppointmentEvent) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher is used when EVENTS_DRIVER=none
func NewNoopPublisher() EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, entity.AppointmentEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
