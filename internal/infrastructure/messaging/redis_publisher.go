package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisPubSub is the subset of *redis.Client used for publishing
type redisPubSub interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher fans events out on one pub-sub channel per clinic
type RedisPublisher struct {
	client redisPubSub
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) service.EventPublisher {
	return newRedisPublisher(client, prefix)
}

func newRedisPublisher(client redisPubSub, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel is where UIs of a clinic subscribe
func (p *RedisPublisher) Channel(clinicID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:appointments", p.prefix, clinicID)
}

func (p *RedisPublisher) Publish(ctx context.Context, event entity.AppointmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	if err := p.client.Publish(ctx, p.Channel(event.ClinicID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close is a no-op; the redis client is shared and closed by the app.
func (p *RedisPublisher) Close() error {
	return nil
}
