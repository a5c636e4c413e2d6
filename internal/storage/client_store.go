package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Durable client storage keys.
const (
	KeyMemberUUID  = "memberUUID"
	KeyAccessToken = "accessToken"
)

var ErrKeyNotFound = errors.New("storage key not found")

// ClientStore is durable key/value storage for values that must survive the
// session (the browser's localStorage in the original client).
type ClientStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Driver string

const (
	DriverFile     Driver = "file"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Open builds the ClientStore for driver. The returned close func is never nil.
func Open(ctx context.Context, driver, path, postgresURL string) (ClientStore, func(), error) {
	switch Driver(driver) {
	case DriverFile, "":
		s, err := NewFileStore(path)
		if err != nil {
			return nil, func() {}, err
		}
		return s, func() {}, nil
	case DriverPostgres:
		db, err := NewDB(ctx, postgresURL)
		if err != nil {
			return nil, func() {}, err
		}
		s := NewPostgresStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, func() {}, err
		}
		return s, db.Close, nil
	case DriverMemory:
		return NewMemoryStore(), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.writes++
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Writes counts Set calls.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
