package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(1050), toCents(decimal.RequireFromString("10.50")))
	assert.Equal(t, int64(1), toCents(decimal.RequireFromString("0.005")))
	assert.Equal(t, int64(0), toCents(decimal.Zero))
}

func TestLimitKeyIsPerDay(t *testing.T) {
	day := time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "transfer:daily:20240229:17", limitKey(17, day))
	assert.NotEqual(t, limitKey(17, day), limitKey(17, day.Add(2*time.Hour)))
}

func TestTTLUntilTomorrowFollowsGivenClock(t *testing.T) {
	now := time.Date(2024, 2, 29, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 90*time.Minute, ttlUntilTomorrow(now))
}

func TestDisabledLimitNeverRefuses(t *testing.T) {
	svc := NewTransferLimitService(nil, nil, nil, quietLogger(), decimal.Zero)

	reservation, err := svc.Reserve(context.Background(), 1, decimal.NewFromInt(1_000_000))
	require.NoError(t, err)
	assert.NoError(t, svc.Release(context.Background(), reservation))
	assert.NoError(t, svc.Release(context.Background(), nil))
}

func newMiniredisLimiter(t *testing.T, limit int64) (*TransferLimitService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTransferLimitService(nil, nil, client, quietLogger(), decimal.NewFromInt(limit)), mr
}

func TestReleaseAfterMidnightCreditsReservationDay(t *testing.T) {
	svc, mr := newMiniredisLimiter(t, 100)
	ctx := context.Background()

	lateEvening := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)
	svc.now = func() time.Time { return lateEvening }
	reservation, err := svc.Reserve(ctx, 17, decimal.RequireFromString("80.00"))
	require.NoError(t, err)
	assert.Equal(t, "transfer:daily:20240229:17", reservation.key())

	svc.now = func() time.Time { return lateEvening.Add(2 * time.Second) }
	require.NoError(t, svc.Release(ctx, reservation))

	previous, err := mr.Get("transfer:daily:20240229:17")
	require.NoError(t, err)
	assert.Equal(t, "0", previous)
	assert.False(t, mr.Exists("transfer:daily:20240301:17"))

	// The new day starts with the full limit available.
	_, err = svc.Reserve(ctx, 17, decimal.RequireFromString("100.00"))
	assert.NoError(t, err)
}

func TestReserveRefusesPastLimit(t *testing.T) {
	svc, _ := newMiniredisLimiter(t, 100)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, 3, decimal.RequireFromString("60.00"))
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, 3, decimal.RequireFromString("40.01"))
	assert.ErrorIs(t, err, ErrDailyLimitExceeded)
	_, err = svc.Reserve(ctx, 4, decimal.RequireFromString("100.00"))
	assert.NoError(t, err)
}

// Runs against a real Redis when REDIS_TEST_ADDR is set.
func TestTransferLimitReserveAndRelease(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	svc := NewTransferLimitService(nil, nil, client, quietLogger(), decimal.NewFromInt(100))
	userID := time.Now().UnixNano()
	defer client.Del(ctx, limitKey(userID, time.Now().UTC()))

	_, err := svc.Reserve(ctx, userID, decimal.RequireFromString("60.00"))
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, userID, decimal.RequireFromString("40.01"))
	assert.ErrorIs(t, err, ErrDailyLimitExceeded)
	last, err := svc.Reserve(ctx, userID, decimal.RequireFromString("40.00"))
	require.NoError(t, err)

	require.NoError(t, svc.Release(ctx, last))
	_, err = svc.Reserve(ctx, userID, decimal.RequireFromString("40.00"))
	assert.NoError(t, err)
}
