package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/model"

	"github.com/redis/go-redis/v9"
)

var ErrTooManyAttempts = model.NewRateLimitedError("Too many attempts, please try again later")

// RateLimiter counts login and signup attempts per email in redis. A nil
// client disables limiting.
type RateLimiter struct {
	redis *redis.Client
	cfg   config.RedisConfig
}

func NewRateLimiter(redis *redis.Client, cfg config.RedisConfig) *RateLimiter {
	return &RateLimiter{
		redis: redis,
		cfg:   cfg,
	}
}

func (r *RateLimiter) CheckLogin(ctx context.Context, email string) error {
	return r.check(ctx, "login", email, r.cfg.LoginAttempts, r.cfg.LoginWindow)
}

func (r *RateLimiter) CheckSignup(ctx context.Context, email string) error {
	return r.check(ctx, "signup", email, r.cfg.SignupAttempts, r.cfg.SignupWindow)
}

// ResetAttempts clears the counter after a successful attempt.
func (r *RateLimiter) ResetAttempts(ctx context.Context, operation, email string) error {
	if r == nil || r.redis == nil {
		return nil
	}
	return r.redis.Del(ctx, attemptKey(operation, email)).Err()
}

func (r *RateLimiter) check(ctx context.Context, operation, email string, limit int64, window time.Duration) error {
	if r == nil || r.redis == nil {
		return nil
	}

	key := attemptKey(operation, email)
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		// Fail open on redis errors
		slog.WarnContext(ctx, "Rate limiter unavailable", "operation", operation, "error", err)
		return nil
	}

	if count == 1 {
		r.redis.Expire(ctx, key, window)
	}

	if count > limit {
		return ErrTooManyAttempts
	}

	return nil
}

func attemptKey(operation, email string) string {
	return fmt.Sprintf("%s_attempts:%s", operation, strings.ToLower(strings.TrimSpace(email)))
}
