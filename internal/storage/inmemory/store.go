package inmemory

import (
	"context"
	"sync"

	"github.com/chaitanya-699/url-shortener/internal/domain"
)

// Store keeps values in process memory. Used in tests and for runs where
// nothing should survive the process.
type Store struct {
	m sync.Map
}

func New() *Store {
	return &Store{}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := s.m.Load(key)

	if !ok {
		return nil, domain.ErrKeyNotFound
	}

	return value.([]byte), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.m.Store(key, value)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.m.Delete(key)
	return nil
}

func (s *Store) IsAvailable(ctx context.Context) bool {
	return true
}
