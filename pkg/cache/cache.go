package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	// TryLock returns a token identifying this acquisition; ok is false
	// when the lock is already held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Unlock releases the lock only while it still carries token.
	Unlock(ctx context.Context, key, token string) error
	Ping(ctx context.Context) error
	Close() error
}

// Key joins parts with ':' the way every store key in the service is built.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// encode turns a value into the bytes both backends store. Strings and
// byte slices are kept verbatim so they read back unchanged.
func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return append([]byte(nil), v...), nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache encode: %w", err)
		}
		return data, nil
	}
}

func decode(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
		return nil
	case *[]byte:
		*d = append([]byte(nil), data...)
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode: %w", err)
	}
	return nil
}
