package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/domain/repository"
	"UMKMForecast/pkg/cache"
)

// CacheSessionStore implements SessionStore on top of a cache.Service, so
// the same code runs against memory, Redis or the layered cache.
type CacheSessionStore struct {
	cache   cache.Service
	ttl     time.Duration
	lockTTL time.Duration
}

// NewCacheSessionStore creates a session store. ttl bounds how long an
// idle session is kept, lockTTL how long a crashed training can block retries.
func NewCacheSessionStore(c cache.Service, ttl, lockTTL time.Duration) repository.SessionStore {
	return &CacheSessionStore{cache: c, ttl: ttl, lockTTL: lockTTL}
}

func (s *CacheSessionStore) Save(ctx context.Context, sess *models.Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("save session: missing id")
	}
	if err := s.cache.Set(ctx, sessionKey(sess.ID), sess, s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *CacheSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := s.cache.Get(ctx, sessionKey(id), &sess); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *CacheSessionStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionKey(id), lockKey(id))
}

func (s *CacheSessionStore) Lock(ctx context.Context, id string) (string, bool, error) {
	token, ok, err := s.cache.TryLock(ctx, lockKey(id), s.lockTTL)
	if err != nil {
		return "", false, fmt.Errorf("lock session %s: %w", id, err)
	}
	return token, ok, nil
}

func (s *CacheSessionStore) Unlock(ctx context.Context, id, token string) error {
	if err := s.cache.Unlock(ctx, lockKey(id), token); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return fmt.Errorf("unlock session %s: %w", id, err)
	}
	return nil
}

func sessionKey(id string) string { return cache.Key("session", id) }
func lockKey(id string) string    { return cache.Key("train-lock", id) }
