package usecase

import (
	"context"
	"time"

	"github.com/iho/bookd/internal/domain"
)

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time. Use cases stamp events through it so
// tests can pin time.
type Clock interface {
	Now() time.Time
}

// EventPublisher delivers ledger events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
