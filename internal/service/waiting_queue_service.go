package service

import (
	"context"
	"fmt"
	"time"

	"clinic-practice-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// nextTicketScript increments the per-clinic daily counter and sets its
// expiry on first use, in one round trip.
var nextTicketScript = redis.NewScript(`
	local n = redis.call('INCR', KEYS[1])
	if n == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return n
`)

const (
	RedisQueueKeyPrefix = "clinic:queue:"

	// startup sync processes this many clinics per pipeline
	syncBatchSize = 500
)

// QueueTicketer hands out waiting-room numbers on arrival
type QueueTicketer interface {
	NextTicket(ctx context.Context, clinicID uuid.UUID, day time.Time) (int, error)
}

// WaitingQueueService keeps the waiting-room counters in Redis. The
// database stays the source of truth; SyncOnStartup rebuilds the counters
// from queue numbers already issued today.
type WaitingQueueService struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
	now         func() time.Time
}

type queueSyncRow struct {
	ClinicID       uuid.UUID
	MaxQueueNumber int
}

func NewWaitingQueueService(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *WaitingQueueService {
	return &WaitingQueueService{
		db:          db,
		redisClient: redisClient,
		log:         log,
		now:         time.Now,
	}
}

func (s *WaitingQueueService) NextTicket(ctx context.Context, clinicID uuid.UUID, day time.Time) (int, error) {
	key := QueueKey(clinicID, day)
	ttl := ticketTTL(day, s.now())

	n, err := nextTicketScript.Run(ctx, s.redisClient, []string{key}, int64(ttl.Seconds())).Int()
	if err != nil {
		return 0, fmt.Errorf("next ticket for clinic %s: %w", clinicID, err)
	}
	return n, nil
}

// SyncOnStartup restores today's counters so numbering continues after a
// Redis restart. Should run before accepting traffic.
func (s *WaitingQueueService) SyncOnStartup(ctx context.Context, loc *time.Location) error {
	s.log.Info("Starting waiting queue re-sync from database...")
	startTime := time.Now()

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		s.log.Warnf("Redis is not available, skipping sync: %+v", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}

	now := s.now().In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	ttl := ticketTTL(dayStart, now)

	offset := 0
	totalSynced := 0
	for {
		var rows []queueSyncRow
		err := s.db.WithContext(ctx).Model(&entity.Appointment{}).
			Select("clinic_id, COALESCE(MAX(queue_number), 0) AS max_queue_number").
			Where("patient_arrived_at >= ? AND patient_arrived_at < ?", dayStart, dayEnd).
			Group("clinic_id").
			Order("clinic_id").
			Limit(syncBatchSize).
			Offset(offset).
			Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("query queue numbers at offset %d: %w", offset, err)
		}
		if len(rows) == 0 {
			break
		}

		pipe := s.redisClient.TxPipeline()
		for _, row := range rows {
			pipe.Set(ctx, QueueKey(row.ClinicID, dayStart), row.MaxQueueNumber, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("pipeline exec at offset %d: %w", offset, err)
		}

		totalSynced += len(rows)
		if len(rows) < syncBatchSize {
			break
		}
		offset += syncBatchSize

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.log.Infof("Waiting queue re-sync completed: %d clinics synced in %v", totalSynced, time.Since(startTime))
	return nil
}

func QueueKey(clinicID uuid.UUID, day time.Time) string {
	return RedisQueueKeyPrefix + clinicID.String() + ":" + day.Format("2006-01-02")
}

// ticketTTL keeps a counter until the end of the day after day
func ticketTTL(day, now time.Time) time.Duration {
	y, m, d := day.Date()
	expiry := time.Date(y, m, d, 0, 0, 0, 0, day.Location()).AddDate(0, 0, 2)
	ttl := expiry.Sub(now)
	if ttl < time.Hour {
		return time.Hour
	}
	return ttl
}
