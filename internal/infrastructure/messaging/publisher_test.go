package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"clinic-practice-api/config"
	"clinic-practice-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

type fakePubSub struct {
	channel string
	payload []byte
}

func (f *fakePubSub) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return redis.NewIntResult(1, nil)
}

type fakeWriter struct {
	err      error
	messages []kafka.Message
	calls    int
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleEvent() entity.AppointmentEvent {
	return entity.AppointmentEvent{
		Type:               entity.EventPatientArrived,
		AppointmentID:      uuid.New(),
		ClinicID:           uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		ConsultationStatus: entity.ConsultationStatusWaiting,
		OccurredAt:         time.Date(2024, 3, 4, 9, 10, 0, 0, time.UTC),
	}
}

func TestRedisPublisher_ChannelPerClinic(t *testing.T) {
	fake := &fakePubSub{}
	p := newRedisPublisher(fake, "clinic")

	if err := p.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if fake.channel != "clinic:11111111-2222-3333-4444-555555555555:appointments" {
		t.Errorf("channel = %q", fake.channel)
	}

	var decoded entity.AppointmentEvent
	if err := json.Unmarshal(fake.payload, &decoded); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if decoded.Type != entity.EventPatientArrived {
		t.Errorf("type = %q", decoded.Type)
	}
}

func TestKafkaPublisher_KeyedByClinic(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, quietLogger())

	evt := sampleEvent()
	if err := p.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.messages))
	}
	if string(w.messages[0].Key) != evt.ClinicID.String() {
		t.Errorf("key = %q", w.messages[0].Key)
	}
}

func TestKafkaPublisher_BreakerOpensAfterFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, quietLogger())

	for i := 0; i < 5; i++ {
		if err := p.Publish(context.Background(), sampleEvent()); err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
	}

	err := p.Publish(context.Background(), sampleEvent())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if w.calls != 5 {
		t.Errorf("writer calls = %d, want 5", w.calls)
	}
}

func TestNewPublisher_Drivers(t *testing.T) {
	log := quietLogger()

	if _, err := NewPublisher(config.EventsConfig{Driver: "kafka"}, nil, log); err == nil {
		t.Error("kafka without brokers must fail")
	}
	if _, err := NewPublisher(config.EventsConfig{Driver: "carrier-pigeon"}, nil, log); err == nil {
		t.Error("unknown driver must fail")
	}
	if p, err := NewPublisher(config.EventsConfig{Driver: "none"}, nil, log); err != nil || p == nil {
		t.Errorf("none driver: %v", err)
	}
}
