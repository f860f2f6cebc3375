package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActionGuard deduplicates concurrent invocations of the same logical action.
// Begin returns false when the token is already in flight; End releases the
// token and must be called on every exit path. This is at-most-one
// *concurrent* execution per token, not exactly-once over time: after End the
// same token may legitimately run again.
type ActionGuard interface {
	Begin(ctx context.Context, token string) (bool, error)
	End(ctx context.Context, token string)
}

// MemoryGuard tracks in-flight tokens in process memory. Sufficient for a
// single-instance deployment; swap in RedisGuard when the engine is sharded.
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: make(map[string]struct{})}
}

func (g *MemoryGuard) Begin(_ context.Context, token string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[token]; busy {
		return false, nil
	}
	g.inFlight[token] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) End(_ context.Context, token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, token)
}

// RedisGuard keeps in-flight tokens in a shared cache so duplicates are
// caught across replicas. The TTL bounds how long a token stays blocked if a
// process dies mid-action without calling End.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Begin(ctx context.Context, token string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(token), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring action lock: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) End(ctx context.Context, token string) {
	// Best effort: if the delete fails the TTL still releases the token.
	g.client.Del(ctx, g.key(token))
}

func (g *RedisGuard) key(token string) string {
	return "triage:action:" + token
}
