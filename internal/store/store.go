package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Keys of the durable session state.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyCurrentUser  = "current_user"
	KeyAppState     = "appState"
)

// SessionKeys lists every key written by sign-in and removed by sign-out.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyCurrentUser, KeyAppState}

// Storage is a durable string key-value store for session state. Get
// reports a missing key with ok=false and a nil error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON decodes the value at key into v. It reports ok=false when the
// key is absent.
func GetJSON(ctx context.Context, s Storage, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// MemoryStore is an in-process Storage.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Routed sends the token keys to a secret backend (the OS keyring) and
// every other key to a default backend.
type Routed struct {
	Default Storage
	Secrets Storage
}

func isSecret(key string) bool {
	return key == KeyAccessToken || key == KeyRefreshToken
}

func (r Routed) route(key string) Storage {
	if isSecret(key) {
		return r.Secrets
	}
	return r.Default
}

func (r Routed) Get(ctx context.Context, key string) (string, bool, error) {
	return r.route(key).Get(ctx, key)
}

func (r Routed) Set(ctx context.Context, key, value string) error {
	return r.route(key).Set(ctx, key, value)
}

// Delete removes keys from both backends. Every key is attempted; the
// first error is returned.
func (r Routed) Delete(ctx context.Context, keys ...string) error {
	var secrets, plain []string
	for _, k := range keys {
		if isSecret(k) {
			secrets = append(secrets, k)
		} else {
			plain = append(plain, k)
		}
	}

	var firstErr error
	if len(secrets) > 0 {
		firstErr = r.Secrets.Delete(ctx, secrets...)
	}
	if len(plain) > 0 {
		if err := r.Default.Delete(ctx, plain...); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
