package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Key joins parts with ':' e.g. Key("ratelimit", "10.0.0.1") -> "ratelimit:10.0.0.1".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GetOrLoad returns the cached JSON value at key, or calls load and caches
// its result. Cache failures fall through to load.
func GetOrLoad[T any](ctx context.Context, c Client, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if err := c.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	_ = c.SetJSON(ctx, key, value, ttl)
	return value, nil
}

func marshal(key string, value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, &Error{Operation: "serialize", Key: key, Err: err}
	}
	return data, nil
}

func unmarshal(key string, data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return &Error{Operation: "deserialize", Key: key, Err: ErrSerialization}
	}
	return nil
}

func parseInt64(data []byte) (int64, error) {
	return strconv.ParseInt(string(data), 10, 64)
}

func formatInt64(value int64) []byte {
	return []byte(strconv.FormatInt(value, 10))
}
