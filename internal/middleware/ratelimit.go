package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/AdedejiAdetola/swans-backend/internal/cache"
	"github.com/AdedejiAdetola/swans-backend/internal/config"
	apierrors "github.com/AdedejiAdetola/swans-backend/internal/errors"
	"github.com/AdedejiAdetola/swans-backend/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter implements sliding window rate limiting using Redis
type RateLimiter struct {
	redis  *cache.Redis
	config *config.RateLimitConfig
	auth   *JWTAuthenticator
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	Limit      int
	RetryAfter time.Duration
}

// NewRateLimiter creates a new rate limiter. The authenticator is used only
// to derive the limit key from the caller's token; it never rejects requests.
func NewRateLimiter(redis *cache.Redis, cfg *config.RateLimitConfig, auth *JWTAuthenticator) *RateLimiter {
	return &RateLimiter{redis: redis, config: cfg, auth: auth}
}

// identity resolves the limit key and caller role. The limiter runs before
// JWTAuth, so the context keys are not set yet; a valid bearer token is parsed
// directly, anything else falls back to the client IP.
func (r *RateLimiter) identity(c *gin.Context) (string, string) {
	if accountID := GetAccountIDFromContext(c); accountID != "" {
		return accountID, string(GetRoleFromContext(c))
	}

	if r.auth != nil {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if tokenString, err := extractBearerToken(authHeader); err == nil {
				if claims, err := r.auth.ValidateToken(tokenString); err == nil {
					return claims.AccountID, claims.Role
				}
			}
		}
	}

	return c.ClientIP(), ""
}

// Check checks if a request is allowed under the rate limit. Uses a redis
// sorted set as a sliding window; on redis failure the request is allowed
// (fail open) since rate limiting is protective, not correctness-critical.
func (r *RateLimiter) Check(ctx context.Context, key string) (*RateLimitResult, error) {
	limit := r.config.RequestLimit
	windowSeconds := r.config.WindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = 60
	}

	now := time.Now()
	windowDuration := time.Duration(windowSeconds) * time.Second
	windowStart := now.Add(-windowDuration)

	redisKey := fmt.Sprintf("ratelimit:sliding:%s", key)

	pipe := r.redis.Client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to check rate limit")
		return &RateLimitResult{Allowed: true, Remaining: int64(limit), Limit: limit}, nil
	}

	currentCount := countCmd.Val()
	result := &RateLimitResult{Limit: limit}

	if currentCount >= int64(limit) {
		result.Allowed = false
		result.Remaining = 0

		oldest, err := r.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			oldestTime := time.Unix(0, int64(oldest[0].Score))
			result.RetryAfter = oldestTime.Add(windowDuration).Sub(now)
			if result.RetryAfter < 0 {
				result.RetryAfter = time.Second
			}
		} else {
			result.RetryAfter = windowDuration
		}

		return result, nil
	}

	member := fmt.Sprintf("%d-%s", now.UnixNano(), key)
	if err := r.redis.Client.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: member,
	}).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to add rate limit entry")
	}
	r.redis.Client.Expire(ctx, redisKey, windowDuration*2)

	result.Allowed = true
	result.Remaining = int64(limit) - currentCount - 1
	if result.Remaining < 0 {
		result.Remaining = 0
	}

	return result, nil
}

// RateLimit enforces the per-account request limit. Keys on the
// authenticated account when available, otherwise the client IP.
func (r *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.config.Enabled || r.redis == nil {
			c.Next()
			return
		}

		key, role := r.identity(c)

		result, err := r.Check(c.Request.Context(), key)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))

		if !result.Allowed {
			monitoring.RecordRateLimitHit(role)
			c.Header("Retry-After", fmt.Sprintf("%d", int(result.RetryAfter.Seconds())+1))
			respondWithError(c, apierrors.ErrRateLimitedError)
			c.Abort()
			return
		}

		c.Next()
	}
}
