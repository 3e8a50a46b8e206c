package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"identity-service/common"
	"identity-service/pkg/cache"
	"identity-service/pkg/log"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Fixed window: at most MaxRequests per WindowSize for one key.
	WindowSize  time.Duration
	MaxRequests int64

	KeyPrefix    string
	KeyGenerator func(*gin.Context) string

	SkipPaths []string

	OnLimitReached func(*gin.Context, RateLimitInfo)
}

// RateLimitInfo contains rate limit status information
type RateLimitInfo struct {
	Key        string
	Limit      int64
	Remaining  int64
	RetryAt    time.Time
	WindowSize time.Duration
}

// DefaultRateLimitConfig returns a default rate limiting configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		WindowSize:     time.Minute,
		MaxRequests:    100,
		KeyPrefix:      "rate_limit",
		KeyGenerator:   defaultKeyGenerator,
		SkipPaths:      []string{"/health"},
		OnLimitReached: defaultOnLimitReached,
	}
}

// RateLimit returns a fixed window rate limiter backed by the cache. When the
// cache is unavailable requests are let through.
func (m *middlewares) RateLimit(config ...RateLimitConfig) gin.HandlerFunc {
	cfg := DefaultRateLimitConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	// Ensure all required fields are properly initialized
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = defaultKeyGenerator
	}
	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = defaultOnLimitReached
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rate_limit"
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = time.Minute
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 100
	}

	skipPaths := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if m.cache == nil || skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		key := cache.Key(cfg.KeyPrefix, cfg.KeyGenerator(c))
		info, allowed, err := checkRateLimit(c.Request.Context(), m.cache, key, cfg)
		if err != nil {
			m.logger.WarnContext(c.Request.Context(), "rate limit check failed, letting request through",
				log.String("key", key),
				log.Error(err),
			)
			c.Next()
			return
		}

		setRateLimitHeaders(c, info)
		if !allowed {
			m.logger.WarnContext(c.Request.Context(), "Rate limit exceeded",
				log.String("key", info.Key),
				log.Int64("limit", info.Limit),
				log.String("path", c.Request.URL.Path),
			)
			cfg.OnLimitReached(c, info)
			return
		}

		c.Next()
	}
}

// APIRateLimits applies server.rate_limit_per_minute per client.
func (m *middlewares) APIRateLimits() gin.HandlerFunc {
	cfg := DefaultRateLimitConfig()
	cfg.KeyPrefix = "api"
	cfg.KeyGenerator = UserKeyGenerator
	if m.rateLimitPerMinute > 0 {
		cfg.MaxRequests = m.rateLimitPerMinute
	}
	return m.RateLimit(cfg)
}

// LoginRateLimits is the stricter limit for credential checks.
func (m *middlewares) LoginRateLimits() gin.HandlerFunc {
	return m.RateLimit(RateLimitConfig{
		WindowSize:   5 * time.Minute,
		MaxRequests:  10,
		KeyPrefix:    "login",
		KeyGenerator: EndpointKeyGenerator,
	})
}

func checkRateLimit(ctx context.Context, client cache.Client, key string, cfg RateLimitConfig) (RateLimitInfo, bool, error) {
	current, err := client.Increment(ctx, key, 1, cfg.WindowSize)
	if err != nil {
		return RateLimitInfo{}, true, err
	}

	retryAt := time.Now().Add(cfg.WindowSize)
	if ttl, err := client.GetTTL(ctx, key); err == nil && ttl > 0 {
		retryAt = time.Now().Add(ttl)
	}

	remaining := cfg.MaxRequests - current
	if remaining < 0 {
		remaining = 0
	}

	info := RateLimitInfo{
		Key:        key,
		Limit:      cfg.MaxRequests,
		Remaining:  remaining,
		RetryAt:    retryAt,
		WindowSize: cfg.WindowSize,
	}
	return info, current <= cfg.MaxRequests, nil
}

func setRateLimitHeaders(c *gin.Context, info RateLimitInfo) {
	c.Header("X-RateLimit-Limit", strconv.FormatInt(info.Limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(info.Remaining, 10))
}

func defaultKeyGenerator(c *gin.Context) string {
	return common.GetClientIP(c)
}

func defaultOnLimitReached(c *gin.Context, info RateLimitInfo) {
	message := fmt.Sprintf("Too many requests. Limit %d requests per %v", info.Limit, info.WindowSize)
	common.ResponseTooManyRequests(c, message, info.RetryAt)
}

// UserKeyGenerator keys by user once the authorizer has decoded a token,
// by client IP otherwise.
func UserKeyGenerator(c *gin.Context) string {
	if claims := common.GetClaimsFromCtx(c); claims != nil {
		return cache.Key("user", claims.UserID)
	}
	return cache.Key("ip", common.GetClientIP(c))
}

func EndpointKeyGenerator(c *gin.Context) string {
	return cache.Key("endpoint", c.Request.Method, c.FullPath(), common.GetClientIP(c))
}
