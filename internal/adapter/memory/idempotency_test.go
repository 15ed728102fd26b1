package memory

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestIdempotencyStore_CheckAndSet(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	ctx := context.Background()

	// First call with no response locks the key.
	exists, cached, err := store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists || cached != nil {
		t.Fatalf("fresh key reported existing: %v %q", exists, cached)
	}

	// Second call sees the processing placeholder.
	exists, cached, err = store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists || string(cached) != processingMarker {
		t.Fatalf("in-flight key = %v %q, want processing placeholder", exists, cached)
	}

	// The final response replaces the placeholder and replays afterwards.
	if err := store.Update(ctx, "key-1", []byte(`{"ok":true}`), time.Minute); err != nil {
		t.Fatalf("update: %v", err)
	}
	exists, cached, err = store.CheckAndSet(ctx, "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists || string(cached) != `{"ok":true}` {
		t.Fatalf("replay = %v %q", exists, cached)
	}
}

func TestIdempotencyStore_SetOnFirstUse(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	ctx := context.Background()

	exists, _, err := store.CheckAndSet(ctx, "key-2", []byte("resp"), time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatal("fresh key reported existing")
	}

	exists, cached, err := store.CheckAndSet(ctx, "key-2", nil, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists || string(cached) != "resp" {
		t.Fatalf("replay = %v %q", exists, cached)
	}
}

func TestIdempotencyStore_KeysExpire(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "key-3", []byte("resp"), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(25 * time.Millisecond)

	exists, _, err := store.CheckAndSet(ctx, "key-3", nil, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatal("expired key still replayed")
	}
}

func TestULIDGenerator_Generate(t *testing.T) {
	gen := NewULIDGenerator()

	a, b := gen.Generate(), gen.Generate()
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("ULID length = %d/%d, want 26", len(a), len(b))
	}
	if a == b {
		t.Fatal("consecutive ULIDs collided")
	}
	if strings.ToUpper(a) != a {
		t.Fatalf("ULIDs are upper-case base32, got %s", a)
	}
}
