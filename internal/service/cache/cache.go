package cache

import "time"

// BytesCache stores raw bytes under a key with a TTL. Both the in-memory
// and Redis implementations satisfy it, so callers stay agnostic of the
// backing store.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
