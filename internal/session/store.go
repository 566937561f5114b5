package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"csvpilot/internal/entitlement"
	"csvpilot/internal/storage"
)

// Store holds one entitlement record per visitor. A missing record is a
// fresh visitor, not an error.
type Store interface {
	Get(ctx context.Context, visitorID string) (*entitlement.State, error)
	Put(ctx context.Context, visitorID string, state *entitlement.State) error
}

type RedisStore struct {
	redis *storage.RedisClient
	ttl   time.Duration
}

func NewRedisStore(redis *storage.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		redis: redis,
		ttl:   ttl,
	}
}

func stateKey(visitorID string) string {
	return fmt.Sprintf("session:state:%s", visitorID)
}

func (s *RedisStore) Get(ctx context.Context, visitorID string) (*entitlement.State, error) {
	cached, err := s.redis.Get(ctx, stateKey(visitorID))
	if storage.IsNil(err) {
		return &entitlement.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	var state entitlement.State
	if err := json.Unmarshal([]byte(cached), &state); err != nil {
		// Corrupt record - start the visitor over rather than erroring forever
		return &entitlement.State{}, nil
	}

	return &state, nil
}

func (s *RedisStore) Put(ctx context.Context, visitorID string, state *entitlement.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	// Each write renews the session TTL
	return s.redis.Set(ctx, stateKey(visitorID), payload, s.ttl)
}

// MemoryStore is an in-process Store for tests and single-node development
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]entitlement.State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]entitlement.State)}
}

func (s *MemoryStore) Get(ctx context.Context, visitorID string) (*entitlement.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[visitorID]
	if !ok {
		return &entitlement.State{}, nil
	}

	// Copy out so callers never share the stored slice
	copied := state
	copied.FreeRuns = append([]int64(nil), state.FreeRuns...)
	return &copied, nil
}

func (s *MemoryStore) Put(ctx context.Context, visitorID string, state *entitlement.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *state
	copied.FreeRuns = append([]int64(nil), state.FreeRuns...)
	s.states[visitorID] = copied
	return nil
}
