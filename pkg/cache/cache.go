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
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Client is the cache surface used by the module catalog and the rate limiter.
// A ttl of zero means the client's default TTL.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Increment adds delta to key. The ttl starts when the key is created
	// and is not extended by later increments.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error

	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string

	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	DefaultTTL time.Duration

	// memory provider only
	MaxSize         int
	CleanupInterval time.Duration
}

type Factory struct {
	logger Logger
}

func NewCacheFactory(logger Logger) *Factory {
	return &Factory{logger: logger}
}

func (f *Factory) CreateCache(provider Provider, config *Config) (Client, error) {
	switch provider {
	case Redis:
		setRedisDefaults(config)
		c, err := NewRedisCache(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis cache: %w", err)
		}
		f.logger.Info("Redis cache created",
			"host", config.Host,
			"port", config.Port,
			"db", config.DB,
			"default_ttl", config.DefaultTTL.String(),
		)
		return c, nil
	case Memory:
		setMemoryDefaults(config)
		f.logger.Info("Memory cache created",
			"max_size", config.MaxSize,
			"default_ttl", config.DefaultTTL.String(),
		)
		return NewMemoryCache(config), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", provider)
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
