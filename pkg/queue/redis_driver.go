package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisQueueKey   = "nearcart:queue:jobs"
	redisDelayedKey = "nearcart:queue:delayed"
)

// RedisDriver keeps ready jobs in a list (LPUSH/BRPOP) and delayed jobs in
// a sorted set scored by due time. Due jobs are promoted by whichever worker
// pops next.
type RedisDriver struct {
	rdb     *redis.Client
	timeout time.Duration
}

// NewRedisDriver creates a Redis-backed driver on the client shared with
// pkg/cache.
func NewRedisDriver(rdb *redis.Client) *RedisDriver {
	return &RedisDriver{rdb: rdb, timeout: 5 * time.Second}
}

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, redisQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

func (d *RedisDriver) Later(ctx context.Context, payload []byte, delay time.Duration) error {
	runAt := float64(time.Now().Add(delay).UnixMilli())
	if err := d.rdb.ZAdd(ctx, redisDelayedKey, redis.Z{Score: runAt, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// Pop promotes due delayed jobs, then waits up to the driver timeout for a
// ready job.
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	if err := d.promote(ctx); err != nil {
		return nil, err
	}
	result, err := d.rdb.BRPop(ctx, d.timeout, redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

// promote moves due jobs to the ready list. ZREM decides which worker owns a
// job so concurrent promoters never push it twice.
func (d *RedisDriver) promote(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := d.rdb.ZRangeByScore(ctx, redisDelayedKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return fmt.Errorf("queue/redis: scan delayed: %w", err)
	}
	for _, job := range due {
		removed, err := d.rdb.ZRem(ctx, redisDelayedKey, job).Result()
		if err != nil {
			return fmt.Errorf("queue/redis: claim delayed: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := d.rdb.LPush(ctx, redisQueueKey, job).Err(); err != nil {
			return fmt.Errorf("queue/redis: promote: %w", err)
		}
	}
	return nil
}
