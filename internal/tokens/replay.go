package tokens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenUsed is returned when a token has already been consumed.
var ErrTokenUsed = errors.New("feedback token already used")

// ReplayGuard records consumed token IDs so each token submits feedback once.
type ReplayGuard interface {
	// Consume marks id as used until ttl elapses. It returns ErrTokenUsed if id was already consumed.
	Consume(ctx context.Context, id string, ttl time.Duration) error
	// Release forgets id, so a token whose submission failed can be used again.
	Release(ctx context.Context, id string) error
}

// MemoryGuard is an in-process ReplayGuard.
type MemoryGuard struct {
	mu   sync.Mutex
	used map[string]time.Time
	now  func() time.Time
}

// NewMemoryGuard creates an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		used: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Consume implements ReplayGuard. Expired entries are swept on each call.
func (g *MemoryGuard) Consume(ctx context.Context, id string, ttl time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, exp := range g.used {
		if !exp.After(now) {
			delete(g.used, k)
		}
	}

	if _, ok := g.used[id]; ok {
		return ErrTokenUsed
	}
	g.used[id] = now.Add(ttl)
	return nil
}

// Release implements ReplayGuard.
func (g *MemoryGuard) Release(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.used, id)
	return nil
}

// RedisGuard is a ReplayGuard shared between API instances.
type RedisGuard struct {
	client *redis.Client
	prefix string
}

// NewRedisGuard connects to the redis instance at redisURL (redis://host:port/db)
// and verifies the connection.
func NewRedisGuard(ctx context.Context, redisURL string) (*RedisGuard, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 10 * time.Second
	opts.ReadTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second
	opts.MaxRetries = 3

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisGuard{client: client, prefix: "feedback_token:"}, nil
}

// Consume implements ReplayGuard with SET NX.
func (g *RedisGuard) Consume(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	ok, err := g.client.SetNX(ctx, g.prefix+id, "used", ttl).Result()
	if err != nil {
		return fmt.Errorf("record feedback token use: %w", err)
	}
	if !ok {
		return ErrTokenUsed
	}
	return nil
}

// Release implements ReplayGuard with DEL.
func (g *RedisGuard) Release(ctx context.Context, id string) error {
	if err := g.client.Del(ctx, g.prefix+id).Err(); err != nil {
		return fmt.Errorf("release feedback token: %w", err)
	}
	return nil
}

// Ping checks the redis connection.
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Close releases the redis connection.
func (g *RedisGuard) Close() error {
	return g.client.Close()
}
