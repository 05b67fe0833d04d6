package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultWindow = 24 * time.Hour

// Limiter решает, можно ли выполнить еще одно действие по ключу.
// При отказе возвращает время до сброса окна
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RedisLimiter - счетчик с фиксированным окном на INCR/EXPIRE
type RedisLimiter struct {
	redisClient *redis.Client
	prefix      string
	limit       int
	window      time.Duration
}

func NewRedisLimiter(redisClient *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		redisClient: redisClient,
		prefix:      prefix,
		limit:       limit,
		window:      window,
	}
}

func (l *RedisLimiter) Key(key string) string {
	return l.prefix + ":" + key
}

// Allow увеличивает счетчик ключа; окно начинается с первого действия
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 {
		return true, 0, nil
	}
	redisKey := l.Key(key)

	count, err := l.redisClient.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate counter: %w", err)
	}

	if count == 1 {
		if err := l.redisClient.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set rate window: %w", err)
		}
	}

	if count > int64(l.limit) {
		retryAfter, err := l.redisClient.TTL(ctx, redisKey).Result()
		if err != nil || retryAfter < 0 {
			retryAfter = l.window
		}
		return false, retryAfter, nil
	}
	return true, 0, nil
}
