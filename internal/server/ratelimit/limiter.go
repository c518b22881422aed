// Package ratelimit throttles failed logins with fixed-window counters kept
// in Redis. Each failure bumps a counter per email and per client IP; the
// window starts at the first failure and lasts Cooldown.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis failure. Callers may choose to fail
// open on it.
var ErrRedisUnavailable = errors.New("redis unavailable")

const keyPrefix = "oclus:login:"

type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
}

type LoginLimiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(client redis.UniversalClient, cfg Config) *LoginLimiter {
	return &LoginLimiter{redis: client, config: cfg}
}

// Check returns common.ErrorRateLimited once MaxAttempts failures have been
// recorded for email or ip within the current window.
func (l *LoginLimiter) Check(ctx context.Context, email, ip string) error {
	for _, key := range l.keys(email, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxAttempts) {
			return common.ErrorRateLimited
		}
	}
	return nil
}

// Fail records a failed attempt.
func (l *LoginLimiter) Fail(ctx context.Context, email, ip string) error {
	for _, key := range l.keys(email, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		// fixed window: TTL only on the first hit
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the email counter after a successful login. The ip counter
// keeps running, otherwise one valid account would reset guessing against
// every other email from the same address.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if err := l.redis.Del(ctx, l.keys(email, "")...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *LoginLimiter) keys(email, ip string) []string {
	keys := []string{keyPrefix + "email:" + strings.ToLower(strings.TrimSpace(email))}
	if ip != "" {
		keys = append(keys, keyPrefix+"ip:"+ip)
	}
	return keys
}
