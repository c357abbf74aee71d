package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/cart-service/internal/api/middleware"
	"github.com/aaravmahajanofficial/cart-service/internal/config"
	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	// Allow records an attempt for subject and reports whether it fits in the window, how many
	// attempts remain, and how many seconds to wait when it does not.
	Allow(ctx context.Context, subject string) (bool, int, int, error)
}

type redisRateLimiter struct {
	client *redis.Client
	cfg    config.RateConfig
	now    func() time.Time
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	redisURL := cfg.RedisConnect.GetDSN()
	slog.Info("Connecting to Redis", slog.String("host", cfg.RedisConnect.Host), slog.String("port", cfg.RedisConnect.Port))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("✅ Successfully connected to Redis")

	return client, nil
}

func NewRateLimitRepo(client *redis.Client, cfg config.RateConfig) RateLimitRepository {
	return &redisRateLimiter{client: client, cfg: cfg, now: time.Now}
}

func rateLimitKey(subject string) string {
	return "checkout_attempts:" + subject
}

// Sliding window over a sorted set: every attempt is a member scored by its timestamp in
// milliseconds, members older than the window are trimmed before counting.
func (r *redisRateLimiter) Allow(ctx context.Context, subject string) (bool, int, int, error) {
	logger := middleware.LoggerFromContext(ctx)

	key := rateLimitKey(subject)
	now := r.now()
	nowMs := now.UnixMilli()
	windowMs := r.cfg.WindowSize.Milliseconds()
	windowStart := nowMs - windowMs

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: strconv.FormatInt(now.UnixNano(), 10)})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()

	if attempts > r.cfg.MaxAttempts {
		scores, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{Key: key, Start: 0, Stop: 0}).Result()
		if err != nil {
			return false, 0, int(r.cfg.WindowSize.Seconds()), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		if len(scores) == 0 {
			return false, 0, int(r.cfg.WindowSize.Seconds()), nil
		}

		waitMs := max(int64(scores[0].Score)+windowMs-nowMs, 0)
		retryAfter := int((waitMs + 999) / 1000)

		logger.Warn("Checkout rate limit exceeded", slog.String("subject", subject), slog.Int64("attempts", attempts))

		return false, 0, retryAfter, nil
	}

	return true, int(r.cfg.MaxAttempts - attempts), 0, nil
}

type noopRateLimiter struct{}

// NewNoopRateLimiter is used when Redis is not configured; every attempt is allowed.
func NewNoopRateLimiter() RateLimitRepository {
	return noopRateLimiter{}
}

func (noopRateLimiter) Allow(context.Context, string) (bool, int, int, error) {
	return true, 0, 0, nil
}
