package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss      = errors.New("cache: key not found")
	ErrLockNotHeld    = errors.New("cache: lock not held by this process")
	errInvalidLockTTL = errors.New("cache: lock ttl must be positive")
	errCacheClosed    = errors.New("cache: closed")
)

// Store keeps encoded read models. Strings are stored as is, anything
// else as JSON, and Get decodes into dest.
type Store interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
}

// Locker hands out expiring named locks. Unlock only releases a lock
// this process took.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Service is what the application wires: a store that also serializes
// onboarding writers and can be probed.
type Service interface {
	Store
	Locker
	Health(ctx context.Context) error
	Close() error
}
