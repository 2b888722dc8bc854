package messaging

import (
	"fmt"

	"clinic-practice-api/config"
	"clinic-practice-api/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewPublisher picks the event transport named by EVENTS_DRIVER
func NewPublisher(cfg config.EventsConfig, redisClient *redis.Client, log *logrus.Logger) (service.EventPublisher, error) {
	switch cfg.Driver {
	case "", "redis":
		return NewRedisPublisher(redisClient, cfg.ChannelPrefix), nil
	case "kafka":
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("EVENTS_KAFKA_BROKERS is required for the kafka driver")
		}
		return NewKafkaPublisher(cfg, log), nil
	case "none":
		return service.NewNoopPublisher(), nil
	}
	return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
}
