package storage

import (
	"context"
	"fmt"
	"sync"

	"coconet/internal/util"
)

// FileStore keeps all keys in one JSON document, rewritten atomically on every
// mutation.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: map[string]string{}}
	if _, err := util.ReadJSON(path, &s.values); err != nil {
		return nil, fmt.Errorf("load client storage: %w", err)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = value
	if err := util.WriteJSONAtomic(s.path, s.values); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return fmt.Errorf("persist client storage %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := util.WriteJSONAtomic(s.path, s.values); err != nil {
		s.values[key] = prev
		return fmt.Errorf("persist client storage delete %s: %w", key, err)
	}
	return nil
}
