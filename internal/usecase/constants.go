package usecase

import "time"

const (
	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultListLimit is the page size used when a listing request gives none
	DefaultListLimit = 50

	// MaxListLimit caps the page size of listing requests
	MaxListLimit = 500
)
