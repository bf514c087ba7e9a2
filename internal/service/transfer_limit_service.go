package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainRepo "medledger/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrDailyLimitExceeded is returned when a transfer would push the sender
// past the daily outgoing limit.
var ErrDailyLimitExceeded = errors.New("daily transfer limit exceeded")

// reserveLimitScript adds ARGV[1] cents to the user's daily total unless the
// result would exceed ARGV[2]. It returns the new total, or -1 on refusal.
// The check and the increment run atomically inside Redis.
var reserveLimitScript = redis.NewScript(`
	local used = tonumber(redis.call('GET', KEYS[1]) or '0')
	local amount = tonumber(ARGV[1])
	if used + amount > tonumber(ARGV[2]) then
		return -1
	end
	local total = redis.call('INCRBY', KEYS[1], amount)
	redis.call('EXPIRE', KEYS[1], ARGV[3])
	return total
`)

const (
	RedisTransferLimitKeyPrefix = "transfer:daily:"

	// Batch size for startup sync; each batch gets its own pipeline.
	limitSyncBatchSize = 500
)

// Reservation is volume booked against one UTC day's limit. Releasing it
// always returns the volume to that day, even after midnight has passed.
type Reservation struct {
	UserID int64
	Amount decimal.Decimal
	Day    time.Time
}

func (r *Reservation) key() string {
	return limitKey(r.UserID, r.Day)
}

// TransferLimiter reserves and releases daily outgoing transfer volume.
type TransferLimiter interface {
	Reserve(ctx context.Context, userID int64, amount decimal.Decimal) (*Reservation, error)
	Release(ctx context.Context, reservation *Reservation) error
}

// TransferLimitService keeps per-user daily outgoing totals in Redis,
// counted in cents. Counters are rebuilt from the ledger on startup.
type TransferLimitService struct {
	db          domainRepo.DBTX
	txRepo      domainRepo.TransactionRepository
	redisClient *redis.Client
	log         *logrus.Logger
	limit       decimal.Decimal
	now         func() time.Time
}

func NewTransferLimitService(
	db domainRepo.DBTX,
	txRepo domainRepo.TransactionRepository,
	redisClient *redis.Client,
	log *logrus.Logger,
	limit decimal.Decimal,
) *TransferLimitService {
	return &TransferLimitService{
		db:          db,
		txRepo:      txRepo,
		redisClient: redisClient,
		log:         log,
		limit:       limit,
		now:         time.Now,
	}
}

// Reserve atomically books amount against today's limit. A zero or negative
// limit disables the check.
func (s *TransferLimitService) Reserve(ctx context.Context, userID int64, amount decimal.Decimal) (*Reservation, error) {
	now := s.now().UTC()
	reservation := &Reservation{UserID: userID, Amount: amount, Day: now.Truncate(24 * time.Hour)}
	if !s.limit.IsPositive() {
		return reservation, nil
	}

	result, err := reserveLimitScript.Run(ctx, s.redisClient,
		[]string{reservation.key()},
		toCents(amount), toCents(s.limit), int64(ttlUntilTomorrow(now).Seconds()),
	).Int64()
	if err != nil {
		s.log.Warnf("Failed Lua script reserve limit for user %d: %+v", userID, err)
		return nil, fmt.Errorf("reserve transfer limit for user %d: %w", userID, err)
	}

	if result == -1 {
		return nil, ErrDailyLimitExceeded
	}

	s.log.Debugf("Reserved %s for user %d, daily total=%d cents", amount, userID, result)
	return reservation, nil
}

// Release gives back a reservation whose ledger transaction did not commit.
func (s *TransferLimitService) Release(ctx context.Context, reservation *Reservation) error {
	if reservation == nil || !s.limit.IsPositive() {
		return nil
	}

	if err := s.redisClient.DecrBy(ctx, reservation.key(), toCents(reservation.Amount)).Err(); err != nil {
		s.log.Warnf("Failed to release transfer limit for user %d: %+v", reservation.UserID, err)
		return fmt.Errorf("release transfer limit for user %d: %w", reservation.UserID, err)
	}
	return nil
}

// SyncOnStartup rebuilds today's counters from completed outgoing transfers.
// Should be called before accepting traffic.
func (s *TransferLimitService) SyncOnStartup(ctx context.Context) error {
	s.log.Info("Starting transfer limit re-sync from ledger...")
	startTime := time.Now()

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		s.log.Warnf("Redis is not available, skipping sync: %+v", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}

	now := s.now().UTC()
	today := now.Truncate(24 * time.Hour)

	totals, err := s.txRepo.OutgoingSince(ctx, s.db, today)
	if err != nil {
		s.log.Errorf("Failed to query outgoing totals: %+v", err)
		return err
	}

	ttl := ttlUntilTomorrow(now)
	for start := 0; start < len(totals); start += limitSyncBatchSize {
		end := min(start+limitSyncBatchSize, len(totals))

		// One pipeline per batch keeps memory flat for large ledgers.
		pipe := s.redisClient.TxPipeline()
		for _, t := range totals[start:end] {
			pipe.Set(ctx, limitKey(t.UserID, now), toCents(t.Total), ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			s.log.Errorf("Failed to execute pipeline for batch at offset %d: %+v", start, err)
			return fmt.Errorf("pipeline exec at offset %d: %w", start, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.log.Infof("Transfer limit re-sync completed: %d senders synced in %v", len(totals), time.Since(startTime))
	return nil
}

func limitKey(userID int64, day time.Time) string {
	return fmt.Sprintf("%s%s:%d", RedisTransferLimitKeyPrefix, day.Format("20060102"), userID)
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// ttlUntilTomorrow keeps a counter one hour past the end of its UTC day.
func ttlUntilTomorrow(now time.Time) time.Duration {
	tomorrow := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	return tomorrow.Sub(now) + time.Hour
}
