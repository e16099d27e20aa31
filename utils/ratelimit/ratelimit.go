package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

const keyPrefix = "starterpacks:ratelimit:"

// Limiter decides whether a client may issue more requests.
type Limiter interface {
	// AllowN consumes n units from key's budget under rule.
	AllowN(ctx context.Context, key string, n int, rule Rule) (Decision, error)
}

// Rule is a request budget per fixed window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// PerMinute is the rule the HTTP API uses.
func PerMinute(limit int) Rule {
	return Rule{Limit: limit, Window: time.Minute}
}

// Decision is the outcome of one check.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// FixedWindowLimiter counts requests per key in Redis, one counter per
// window. INCRBY and EXPIRE are pipelined so every API instance shares the
// same budget.
type FixedWindowLimiter struct {
	redisClient *redis.Client
	log         *logger.Logger
	failOpen    bool
	now         func() time.Time
}

// NewFixedWindowLimiter creates a limiter. With failOpen, requests are allowed
// while Redis is unavailable.
func NewFixedWindowLimiter(redisClient *redis.Client, log *logger.Logger, failOpen bool) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		redisClient: redisClient,
		log:         log.Named("ratelimit"),
		failOpen:    failOpen,
		now:         time.Now,
	}
}

// Allow consumes a single unit.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	return l.AllowN(ctx, key, 1, rule)
}

func (l *FixedWindowLimiter) AllowN(ctx context.Context, key string, n int, rule Rule) (Decision, error) {
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Decision{Allowed: true, Remaining: rule.Limit}, nil
	}

	now := l.now()
	bucket, resetAt := bucketKey(key, now, rule.Window)

	pipe := l.redisClient.Pipeline()
	incrCmd := pipe.IncrBy(ctx, bucket, int64(n))
	pipe.Expire(ctx, bucket, rule.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		if l.failOpen {
			l.log.WarnContext(ctx, "rate limit check failed, allowing request",
				zap.String("key", key), zap.Error(err))
			return Decision{Allowed: true, Remaining: rule.Limit, ResetAt: resetAt}, nil
		}
		return Decision{ResetAt: resetAt}, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := incrCmd.Val()
	d := Decision{
		Allowed:   count <= int64(rule.Limit),
		Remaining: max(rule.Limit-int(count), 0),
		ResetAt:   resetAt,
	}
	if !d.Allowed {
		l.log.DebugContext(ctx, "rate limit exceeded",
			zap.String("key", key), zap.Int64("count", count), zap.Int("limit", rule.Limit))
	}
	return d, nil
}

// Remaining reports the unused budget of the current window without
// consuming anything.
func (l *FixedWindowLimiter) Remaining(ctx context.Context, key string, rule Rule) (int, error) {
	bucket, _ := bucketKey(key, l.now(), rule.Window)
	count, err := l.redisClient.Get(ctx, bucket).Int64()
	if errors.Is(err, redis.Nil) {
		return rule.Limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining budget: %w", err)
	}
	return max(rule.Limit-int(count), 0), nil
}

// bucketKey names the counter of the window containing now.
func bucketKey(key string, now time.Time, window time.Duration) (string, time.Time) {
	start := now.Truncate(window)
	return fmt.Sprintf("%s%s:%d", keyPrefix, key, start.Unix()), start.Add(window)
}
