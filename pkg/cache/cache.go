package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Provider string

const (
	Redis  Provider = "redis"
	Memory Provider = "memory"
)

var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrLockNotHeld   = errors.New("lock not held")
	ErrSerialization = errors.New("serialization failed")
)

type Error struct {
	Operation string
	Key       string
	Err       error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s operation failed for key '%s': %v", e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s operation failed: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Logger interface {
	Info(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	Debug(msg string, keyvals ...any)
	Debugf(format string, args ...any)
}

// Client is the cache surface used across the application. Keys are given
// without the configured prefix; implementations add it.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	DeletePattern(ctx context.Context, pattern string) (int64, error)

	// Increment sets ttl only when the key is created, so a counter keeps
	// the window it started with.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Lock acquires a lease on key and returns the token needed to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Unlock(ctx context.Context, key, token string) error

	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) error

	Close() error
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}

type Stats struct {
	Hits        int64             `json:"hits"`
	Misses      int64             `json:"misses"`
	HitRate     float64           `json:"hit_rate"`
	Keys        int64             `json:"keys"`
	Connections int64             `json:"connections"`
	Uptime      time.Duration     `json:"uptime"`
	Metadata    map[string]string `json:"metadata"`
}

type Config struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Prefix   string `json:"prefix" yaml:"prefix"`

	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`

	// Memory cache only
	MaxSize         int           `json:"max_size" yaml:"max_size"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

type Factory struct {
	logger Logger
}

func NewCacheFactory(logger Logger) *Factory {
	return &Factory{
		logger: logger,
	}
}

// CreateCache creates a cache instance based on the configuration
func (f *Factory) CreateCache(cacheType Provider, config *Config) (Client, error) {
	switch cacheType {
	case Redis:
		setRedisDefaults(config)
		c, err := NewRedisCache(config, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis cache: %w", err)
		}
		f.logger.Info("Redis cache created successfully",
			"host", config.Host,
			"port", config.Port,
			"db", config.DB,
			"pool_size", config.PoolSize,
			"default_ttl", config.DefaultTTL.String(),
		)
		return c, nil
	case Memory:
		setMemoryDefaults(config)
		c := NewMemoryCache(config, f.logger)
		f.logger.Info("Memory cache created successfully",
			"max_size", config.MaxSize,
			"default_ttl", config.DefaultTTL.String(),
		)
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}

func setRedisDefaults(config *Config) {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 6379
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	if config.MinIdleConns == 0 {
		config.MinIdleConns = 2
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 3 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 3 * time.Second
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = time.Hour
	}
}

func setMemoryDefaults(config *Config) {
	if config.MaxSize == 0 {
		config.MaxSize = 10000
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
}
