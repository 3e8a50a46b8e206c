package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Client interface using Redis
type RedisCache struct {
	client *redis.Client
	config *Config
}

func NewRedisCache(config *Config) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	cache := &RedisCache{client: rdb, config: config}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cache.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return cache, nil
}

func (r *RedisCache) key(k string) string {
	return r.config.Prefix + k
}

func (r *RedisCache) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return r.config.DefaultTTL
	}
	return ttl
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, &Error{Operation: "get", Key: key, Err: err}
	}
	return result, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl(ttl)).Err(); err != nil {
		return &Error{Operation: "set", Key: key, Err: err}
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		return &Error{Operation: "delete", Err: err}
	}
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, &Error{Operation: "exists", Key: key, Err: err}
	}
	return result > 0, nil
}

func (r *RedisCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	k := r.key(key)
	value, err := r.client.IncrBy(ctx, k, delta).Result()
	if err != nil {
		return 0, &Error{Operation: "increment", Key: key, Err: err}
	}

	// first increment created the key
	if exp := r.ttl(ttl); exp > 0 && value == delta {
		if err := r.client.Expire(ctx, k, exp).Err(); err != nil {
			return 0, &Error{Operation: "expire", Key: key, Err: err}
		}
	}
	return value, nil
}

func (r *RedisCache) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.key(key)).Result()
	if err != nil {
		return 0, &Error{Operation: "ttl", Key: key, Err: err}
	}
	// -2: key does not exist
	if ttl == -2 {
		return 0, ErrKeyNotFound
	}
	return ttl, nil
}

func (r *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := marshal(key, value)
	if err != nil {
		return err
	}
	return r.Set(ctx, key, data, ttl)
}

func (r *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	return unmarshal(key, data, dest)
}

func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return &Error{Operation: "ping", Err: err}
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
