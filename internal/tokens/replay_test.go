package tokens

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewRedisGuard_InvalidURL(t *testing.T) {
	if _, err := NewRedisGuard(context.Background(), "not-a-redis-url"); err == nil {
		t.Error("NewRedisGuard() with invalid URL should fail")
	}
}

// TestRedisGuard_Consume runs against a real server when TEST_REDIS_URL is set.
func TestRedisGuard_Consume(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	g, err := NewRedisGuard(ctx, redisURL)
	if err != nil {
		t.Fatalf("NewRedisGuard() error = %v", err)
	}
	defer func() {
		_ = g.Close()
	}()

	id := uuid.New().String()
	if err := g.Consume(ctx, id, time.Minute); err != nil {
		t.Fatalf("Consume() first use error = %v", err)
	}
	if err := g.Consume(ctx, id, time.Minute); !errors.Is(err, ErrTokenUsed) {
		t.Errorf("Consume() second use error = %v, want %v", err, ErrTokenUsed)
	}
	if err := g.Release(ctx, id); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := g.Consume(ctx, id, time.Minute); err != nil {
		t.Errorf("Consume() after release error = %v, want nil", err)
	}
	if err := g.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
