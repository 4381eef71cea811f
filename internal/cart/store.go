package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/scanpay-backend/pkg/redis"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockWait  = 5 * time.Second
	defaultLockRetry = 20 * time.Millisecond
)

// ErrCartBusy is returned by Lock when another writer kept the cart past the wait.
var ErrCartBusy = errors.New("cart is locked by another request")

// Store persists whole-session snapshots. Writes are last-write-wins, so every
// load, mutate and save cycle runs under Lock.
type Store interface {
	Load(ctx context.Context, owner string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, owner string) error
	// Lock holds owner's cart exclusively for every process sharing the store.
	// The returned func releases it.
	Lock(ctx context.Context, owner string) (func(), error)
}

type redisStore struct {
	client    redis.SessionStore
	ttl       time.Duration
	lockTTL   time.Duration
	lockWait  time.Duration
	lockRetry time.Duration
}

// NewRedisStore keeps each session under one key that expires after ttl of inactivity.
func NewRedisStore(client redis.SessionStore, ttl time.Duration) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis session client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart session ttl must be positive")
	}
	return &redisStore{
		client:    client,
		ttl:       ttl,
		lockTTL:   defaultLockTTL,
		lockWait:  defaultLockWait,
		lockRetry: defaultLockRetry,
	}, nil
}

// Load returns nil, nil when the owner has no stored session.
func (r *redisStore) Load(ctx context.Context, owner string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.client.CartSessionKey(owner))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart session: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode cart session: %w", err)
	}
	return &s, nil
}

func (r *redisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode cart session: %w", err)
	}
	if err := r.client.Set(ctx, r.client.CartSessionKey(s.Owner()), string(data), r.ttl); err != nil {
		return fmt.Errorf("set cart session: %w", err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, r.client.CartSessionKey(owner)); err != nil {
		return fmt.Errorf("delete cart session: %w", err)
	}
	return nil
}

// Lock takes a SETNX lease whose value identifies this holder. It polls until
// the lease is free, ctx ends, or lockWait passes.
func (r *redisStore) Lock(ctx context.Context, owner string) (func(), error) {
	key := r.client.CartLockKey(owner)
	token := uuid.NewString()
	deadline := time.NewTimer(r.lockWait)
	defer deadline.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire cart lock: %w", err)
		}
		if ok {
			return func() { r.release(context.WithoutCancel(ctx), key, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrCartBusy
		case <-time.After(r.lockRetry):
		}
	}
}

// release deletes the lease only while it is still ours. A failed release is
// left to expire with the lease TTL.
func (r *redisStore) release(ctx context.Context, key, token string) {
	value, err := r.client.Get(ctx, key)
	if err != nil || value != token {
		return
	}
	_ = r.client.Del(ctx, key)
}

// MemoryStore keeps snapshots in process. It backs local runs without Redis.
type MemoryStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	locks *keyedMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}, locks: newKeyedMutex()}
}

// Lock serializes writers of owner's cart among services sharing this store.
func (m *MemoryStore) Lock(ctx context.Context, owner string) (func(), error) {
	return m.locks.Lock(owner), nil
}

func (m *MemoryStore) Load(ctx context.Context, owner string) (*Session, error) {
	m.mu.Lock()
	raw, ok := m.data[owner]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode cart session: %w", err)
	}
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode cart session: %w", err)
	}
	m.mu.Lock()
	m.data[s.Owner()] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, owner string) error {
	m.mu.Lock()
	delete(m.data, owner)
	m.mu.Unlock()
	return nil
}
