package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// processingMarker locks a key while the first request is in flight.
	processingMarker = "processing"

	cleanupInterval = 10 * time.Minute
)

// IdempotencyStore implements usecase.IdempotencyStore with an in-process
// TTL cache. The single-process ledger has no shared state to coordinate
// across instances, so the store only needs to survive the process.
type IdempotencyStore struct {
	cache  *cache.Cache
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore. The given TTL is the
// default expiration for keys stored without one.
func NewIdempotencyStore(defaultTTL time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		cache:  cache.New(defaultTTL, cleanupInterval),
		prefix: "idempotency:",
	}
}

// CheckAndSet atomically checks if key exists, sets if not.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	if existing, ok := s.cache.Get(fullKey); ok {
		return true, existing.([]byte), nil
	}

	if response != nil {
		s.cache.Set(fullKey, response, ttl)
		return false, nil, nil
	}

	// Lock the key with a placeholder; Add fails if another request got
	// there first.
	if err := s.cache.Add(fullKey, []byte(processingMarker), ttl); err != nil {
		existing, ok := s.cache.Get(fullKey)
		if !ok {
			return true, nil, nil
		}
		return true, existing.([]byte), nil
	}

	return false, nil, nil
}

// Update updates an existing idempotency key with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.cache.Set(s.prefix+key, response, ttl)
	return nil
}
