package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/chaitanya-699/url-shortener/internal/domain"
	"github.com/chaitanya-699/url-shortener/internal/storage/inmemory"
)

// Store is a key/value store backed by an append-only JSON journal. Every Set
// and Delete appends a record; the journal is replayed at open, last write
// wins. The in-memory copy stays authoritative for reads.
type Store struct {
	encoder *json.Encoder
	s       *inmemory.Store
	mu      sync.Mutex
}

type storedEntry struct {
	Key     string `json:"key"`
	Value   []byte `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

func New(rw io.ReadWriter) (*Store, error) {
	const op = "new file storage"
	entries, err := readEntries(rw)

	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	s := inmemory.New()
	ctx := context.Background()
	for i := 0; i < len(entries); i++ {
		entry := entries[i]

		if entry.Deleted {
			_ = s.Delete(ctx, entry.Key)
			continue
		}

		_ = s.Set(ctx, entry.Key, entry.Value)
	}

	return &Store{
		encoder: json.NewEncoder(rw),
		s:       s,
	}, nil
}

func readEntries(rw io.ReadWriter) ([]storedEntry, error) {
	dec := json.NewDecoder(rw)
	var entries []storedEntry

	for dec.More() {
		var entry storedEntry
		err := dec.Decode(&entry)

		if err != nil {
			return nil, fmt.Errorf("read entries: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "get value"
	value, err := s.s.Get(ctx, key)

	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, op)
	}

	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const op = "set value"
	err := s.s.Set(ctx, key, value)

	if err != nil {
		return errors.Wrap(err, op)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := storedEntry{
		Key:   key,
		Value: value,
	}
	err = s.encoder.Encode(entry)

	if err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "delete value"
	err := s.s.Delete(ctx, key)

	if err != nil {
		return errors.Wrap(err, op)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := storedEntry{
		Key:     key,
		Deleted: true,
	}
	err = s.encoder.Encode(entry)

	if err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (s *Store) IsAvailable(ctx context.Context) bool {
	return true
}
