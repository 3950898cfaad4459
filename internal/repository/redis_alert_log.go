package repository

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
)

const firedKeyPrefix = "alerts:fired:"

// RedisAlertLog records fired alert dedupe keys with the cooldown as TTL, so
// Redis expires suppression state on its own. Survives process restarts,
// which keeps alerts deduplicated across redeploys.
type RedisAlertLog struct {
	cli *redis.Client
}

func NewRedisAlertLog(cli *redis.Client) *RedisAlertLog {
	return &RedisAlertLog{cli: cli}
}

func (l *RedisAlertLog) RecentlyFired(ctx context.Context) (map[string]time.Time, error) {
	fired := make(map[string]time.Time)
	iter := l.cli.Scan(ctx, 0, firedKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := l.cli.Get(ctx, key).Result()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, err
		}
		at, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			continue // unreadable entry, treat as not fired
		}
		fired[key[len(firedKeyPrefix):]] = at
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return fired, nil
}

func (l *RedisAlertLog) MarkFired(ctx context.Context, key string, at time.Time, cooldown time.Duration) error {
	return l.cli.Set(ctx, firedKeyPrefix+key, at.Format(time.RFC3339Nano), cooldown).Err()
}

var _ domrepo.AlertLog = (*RedisAlertLog)(nil)

// MemoryAlertLog is the in-process fallback used when Redis is disabled.
type MemoryAlertLog struct {
	mu    sync.Mutex
	fired map[string]time.Time
}

func NewMemoryAlertLog() *MemoryAlertLog {
	return &MemoryAlertLog{fired: make(map[string]time.Time)}
}

func (l *MemoryAlertLog) RecentlyFired(ctx context.Context) (map[string]time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]time.Time, len(l.fired))
	for k, v := range l.fired {
		out[k] = v
	}
	return out, nil
}

func (l *MemoryAlertLog) MarkFired(ctx context.Context, key string, at time.Time, cooldown time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fired[key] = at
	// drop entries past their cooldown so the map stays bounded
	for k, v := range l.fired {
		if at.Sub(v) > cooldown {
			delete(l.fired, k)
		}
	}
	return nil
}

var _ domrepo.AlertLog = (*MemoryAlertLog)(nil)
