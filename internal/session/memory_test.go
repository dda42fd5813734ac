package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"gamehub-api/internal/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	token, err := store.Create(ctx, model.SessionData{UserID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(token, TokenPrefix) {
		t.Errorf("token %q lacks prefix %q", token, TokenPrefix)
	}

	data, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data.UserID != 42 || data.Username != "alice" {
		t.Errorf("data = %+v", data)
	}
	if data.ExpiresAt.Before(data.CreatedAt) {
		t.Error("expiry precedes creation")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	token, err := store.Create(ctx, model.SessionData{UserID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, token); err != ErrSessionNotFound {
		t.Errorf("get after delete = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	token, err := store.Create(ctx, model.SessionData{UserID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if _, err := store.Get(ctx, token); err != ErrSessionNotFound {
		t.Errorf("get after expiry = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreRejectsMalformedTokens(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	for _, token := range []string{"", "ghs_", "bearer_abc", "totally-wrong"} {
		if _, err := store.Get(ctx, token); err != ErrSessionNotFound {
			t.Errorf("Get(%q) = %v, want ErrSessionNotFound", token, err)
		}
	}
}

func TestTokensAreUnique(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := store.Create(ctx, model.SessionData{UserID: int64(i)})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[token] {
			t.Fatalf("duplicate token at iteration %d", i)
		}
		seen[token] = true
	}
}
