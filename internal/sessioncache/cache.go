// Package sessioncache caches authenticated sessions in front of the sessions
// table. A cache miss is never an error; callers fall back to the repository.
// Suspension purges every cached session for the target user so revocation is
// visible without waiting for TTL expiry.
package sessioncache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lumenhq/adminapi/internal/domain"
)

// ErrMiss is returned by Get when the session is not cached.
var ErrMiss = errors.New("session not cached")

// Cache stores sessions keyed by session ID and indexed by user ID.
type Cache interface {
	Put(ctx context.Context, session domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (domain.Session, error)
	// PurgeUser removes every cached session belonging to the user.
	PurgeUser(ctx context.Context, userID uuid.UUID) error
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func userSetKey(userID uuid.UUID) string {
	return "user:" + userID.String() + ":sessions"
}

// RedisCache wraps go-redis. Each session is stored as JSON under its own key,
// with a per-user set of session keys enabling purge without a scan.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed session cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Put(ctx context.Context, session domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
	pipe.SAdd(ctx, userSetKey(session.UserID), sessionKey(session.ID))
	pipe.Expire(ctx, userSetKey(session.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, ErrMiss
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to read cached session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to unmarshal cached session: %w", err)
	}
	return session, nil
}

func (r *RedisCache) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	keys, err := r.client.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read user session set: %w", err)
	}
	keys = append(keys, userSetKey(userID))
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to purge user sessions: %w", err)
	}
	return nil
}

// MemoryCache is an in-process TTL cache for deployments without Redis.
type MemoryCache struct {
	mu     sync.Mutex
	items  map[uuid.UUID]memItem
	byUser map[uuid.UUID]map[uuid.UUID]struct{}
}

type memItem struct {
	session   domain.Session
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory session cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items:  map[uuid.UUID]memItem{},
		byUser: map[uuid.UUID]map[uuid.UUID]struct{}{},
	}
}

func (m *MemoryCache) Put(ctx context.Context, session domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	m.items[session.ID] = memItem{session: session, expiresAt: time.Now().Add(ttl)}
	set, ok := m.byUser[session.UserID]
	if !ok {
		set = map[uuid.UUID]struct{}{}
		m.byUser[session.UserID] = set
	}
	set[session.ID] = struct{}{}
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	item, ok := m.items[id]
	if !ok {
		return domain.Session{}, ErrMiss
	}
	return item.session, nil
}

func (m *MemoryCache) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.byUser[userID] {
		delete(m.items, id)
	}
	delete(m.byUser, userID)
	return nil
}

func (m *MemoryCache) cleanupLocked() {
	now := time.Now()
	for id, item := range m.items {
		if now.After(item.expiresAt) {
			delete(m.items, id)
			if set, ok := m.byUser[item.session.UserID]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(m.byUser, item.session.UserID)
				}
			}
		}
	}
}
