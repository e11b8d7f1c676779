package badgerkv

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/chaitanya-699/url-shortener/internal/domain"
)

// Store is the persistent store used by the CLI between runs. Badger keeps
// the cache on disk per user, which is the closest thing a terminal client
// has to a browser's per-origin local storage.
type Store struct {
	db *badger.DB
}

func New(dir string) (*Store, error) {
	const op = "open badger storage"
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)

	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "get value"
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))

		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrKeyNotFound
	}

	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const op = "set value"
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})

	if err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "delete value"
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})

	if err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (s *Store) IsAvailable(ctx context.Context) bool {
	return !s.db.IsClosed()
}

func (s *Store) Close() error {
	return s.db.Close()
}
