package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"garment-backend/internal/config"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	UnsettledAdvancesKeyFmt = "advances:unsettled:%d"
	BatchCapacityKeyFmt     = "batches:capacity:%d"

	SummaryTTL = 5 * time.Minute
)

var (
	client *redis.Client
	locker *redislock.Client
)

// Init connects to Redis. On failure the client stays nil and every helper
// in this package becomes a no-op.
func Init(cfg *config.Config) error {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	locker = redislock.New(client)
	return nil
}

func Close() {
	if client != nil {
		client.Close()
	}
}

func UnsettledAdvancesKey(employeeID int) string {
	return fmt.Sprintf(UnsettledAdvancesKeyFmt, employeeID)
}

func BatchCapacityKey(batchID int) string {
	return fmt.Sprintf(BatchCapacityKeyFmt, batchID)
}

// ============================================
// Generic Cache Functions
// ============================================

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// GetJSON decodes a cached value into dest
func GetJSON(ctx context.Context, key string, dest any) bool {
	data, ok := GetCached(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	SetCached(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// ============================================
// Entity-Based Cache Invalidators
// ============================================

// InvalidateAdvanceCaches is called when an advance is recorded
func InvalidateAdvanceCaches(ctx context.Context, employeeID int) {
	InvalidateKeys(ctx, UnsettledAdvancesKey(employeeID))
}

// InvalidateBatchCaches is called when cutting completes or progress changes
func InvalidateBatchCaches(ctx context.Context, batchIDs ...int) {
	InvalidateKeys(ctx, batchKeys(batchIDs)...)
}

// InvalidateSettlementCaches is called after a settlement is committed or reversed
func InvalidateSettlementCaches(ctx context.Context, employeeID int, batchIDs []int) {
	InvalidateKeys(ctx, settlementKeys(employeeID, batchIDs)...)
}

func batchKeys(batchIDs []int) []string {
	keys := make([]string, 0, len(batchIDs))
	for _, id := range batchIDs {
		keys = append(keys, BatchCapacityKey(id))
	}
	return keys
}

// settlementKeys lists every cached summary a settlement can change
func settlementKeys(employeeID int, batchIDs []int) []string {
	return append([]string{UnsettledAdvancesKey(employeeID)}, batchKeys(batchIDs)...)
}

// ============================================
// Distributed lock
// ============================================

// ObtainSettlementLock takes a short Redis lock per employee so two instances do
// not start the same settlement at once. It is best effort: when Redis is down
// or the lock is held the caller proceeds and relies on the database transaction.
// The returned release func is never nil.
func ObtainSettlementLock(ctx context.Context, employeeID int) func() {
	logger := config.GetLogger()
	if locker == nil {
		logger.WithField("employee_id", employeeID).Debug("redis lock not ready; proceeding without redis lock")
		return func() {}
	}

	key := fmt.Sprintf("lock:settlement:%d", employeeID)
	lock, err := locker.Obtain(ctx, key, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		logger.WithField("employee_id", employeeID).Warn("could not obtain redis lock; proceeding without redis lock")
		return func() {}
	} else if err != nil {
		logger.WithFields(logrus.Fields{
			"employee_id": employeeID,
			"error":       err.Error(),
		}).Warn("error obtaining redis lock; proceeding without redis lock")
		return func() {}
	}

	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			logger.WithField("employee_id", employeeID).Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
