package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"auction-market/common"
	"auction-market/pkg/cache"
	"auction-market/pkg/log"

	"github.com/gin-gonic/gin"
)

type RateLimitConfig struct {
	WindowSize  time.Duration
	MaxRequests int64

	KeyPrefix    string
	KeyGenerator func(*gin.Context) string

	SkipPaths []string

	// Description is returned to clients that hit the limit
	Description string
}

type RateLimitInfo struct {
	Key        string
	Limit      int64
	Remaining  int64
	RetryAt    time.Time
	WindowSize time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		WindowSize:   time.Minute,
		MaxRequests:  100,
		KeyPrefix:    "rate_limit:",
		KeyGenerator: ClientIPKeyGenerator,
		SkipPaths:    []string{"/health"},
	}
}

func (m *middlewares) RateLimit(config ...RateLimitConfig) gin.HandlerFunc {
	cfg := DefaultRateLimitConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = ClientIPKeyGenerator
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rate_limit:"
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = time.Minute
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.Description == "" {
		cfg.Description = fmt.Sprintf("Too many requests. Limit %d requests per %v", cfg.MaxRequests, cfg.WindowSize)
	}

	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		key := cfg.KeyPrefix + cfg.KeyGenerator(c)
		info, allowed, err := checkRateLimit(c.Request.Context(), m.cache, key, cfg)
		if err != nil {
			// Fail open, a cache outage must not take the API down
			m.logger.WarnContext(c.Request.Context(), "Rate limit check failed",
				log.String("key", key),
				log.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(info.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(info.Remaining, 10))

		if !allowed {
			m.logger.WarnContext(c.Request.Context(), "Rate limit exceeded",
				log.String("key", info.Key),
				log.Int64("limit", info.Limit),
				log.String("path", c.Request.URL.Path),
			)
			common.ResponseTooManyRequests(c, cfg.Description, info.RetryAt)
			return
		}

		c.Next()
	}
}

// AuthRateLimits guards the credential endpoints with tighter per-IP limits.
func (m *middlewares) AuthRateLimits() gin.HandlerFunc {
	login := m.RateLimit(RateLimitConfig{
		WindowSize:   5 * time.Minute,
		MaxRequests:  5,
		KeyPrefix:    "rate_limit:login:",
		KeyGenerator: ClientIPKeyGenerator,
		Description:  "Too many login attempts. Please try again later.",
	})
	register := m.RateLimit(RateLimitConfig{
		WindowSize:   time.Hour,
		MaxRequests:  10,
		KeyPrefix:    "rate_limit:register:",
		KeyGenerator: ClientIPKeyGenerator,
	})
	verification := m.RateLimit(RateLimitConfig{
		WindowSize:   time.Hour,
		MaxRequests:  5,
		KeyPrefix:    "rate_limit:verify_email:",
		KeyGenerator: ClientIPKeyGenerator,
	})
	other := m.RateLimit(RateLimitConfig{
		WindowSize:   time.Minute,
		MaxRequests:  30,
		KeyPrefix:    "rate_limit:auth:",
		KeyGenerator: ClientIPKeyGenerator,
	})

	return func(c *gin.Context) {
		switch c.FullPath() {
		case "/api/v1/auth/login":
			login(c)
		case "/api/v1/auth/register":
			register(c)
		case "/api/v1/auth/send-verification-email":
			verification(c)
		default:
			other(c)
		}
	}
}

// APIRateLimits applies the configured per-minute budget, per user when
// authenticated and per IP otherwise.
func (m *middlewares) APIRateLimits() gin.HandlerFunc {
	return m.RateLimit(RateLimitConfig{
		WindowSize:   time.Minute,
		MaxRequests:  m.apiRequestsPerMin,
		KeyPrefix:    "rate_limit:api:",
		KeyGenerator: UserKeyGenerator,
		SkipPaths:    []string{"/health"},
	})
}

// checkRateLimit counts the request in a fixed window that starts with the
// first request for key.
func checkRateLimit(ctx context.Context, c cache.Client, key string, cfg RateLimitConfig) (RateLimitInfo, bool, error) {
	current, err := c.Increment(ctx, key, 1, cfg.WindowSize)
	if err != nil {
		return RateLimitInfo{}, false, err
	}

	retryAt := time.Now().Add(cfg.WindowSize)
	if ttl, err := c.GetTTL(ctx, key); err == nil && ttl > 0 {
		retryAt = time.Now().Add(ttl)
	}

	info := RateLimitInfo{
		Key:        key,
		Limit:      cfg.MaxRequests,
		Remaining:  max(cfg.MaxRequests-current, 0),
		RetryAt:    retryAt,
		WindowSize: cfg.WindowSize,
	}
	return info, current <= cfg.MaxRequests, nil
}

func ClientIPKeyGenerator(c *gin.Context) string {
	return "ip:" + common.GetClientIP(c)
}

func UserKeyGenerator(c *gin.Context) string {
	if user := common.GetUserFromCtx(c); user != nil {
		return "user:" + user.ID
	}
	return ClientIPKeyGenerator(c)
}

