package chess

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	corechess "github.com/park285/chesspal/internal/chess"
)

const badgerGamePrefix = "game_"

// BadgerStore is the embedded single-node backend.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerStore opens (or creates) a database in dir.
func OpenBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("BADGER_DIR required for badger session store")
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

func badgerGameKey(id string) []byte { return []byte(badgerGamePrefix + strings.TrimSpace(id)) }

func (s *BadgerStore) entry(id string, raw []byte) *badger.Entry {
	e := badger.NewEntry(badgerGameKey(id), raw)
	if s.ttl > 0 {
		e = e.WithTTL(s.ttl)
	}
	return e
}

func (s *BadgerStore) Create(ctx context.Context, id string, state *corechess.GameState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerGameKey(id))
		if err == nil {
			return ErrGameExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.SetEntry(s.entry(id, raw))
	})
}

func (s *BadgerStore) Load(ctx context.Context, id string) (*corechess.GameState, error) {
	var state *corechess.GameState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerGameKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			st, err := decodeState(val)
			state = st
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("badger load: %w", err)
	}
	return state, nil
}

func (s *BadgerStore) Save(ctx context.Context, id string, state *corechess.GameState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(s.entry(id, raw))
	})
}

// Update runs inside a single read-write transaction; badger rejects the
// commit with ErrConflict if another transaction wrote the key first.
func (s *BadgerStore) Update(ctx context.Context, id string, fn UpdateFunc) (*corechess.GameState, error) {
	var next *corechess.GameState
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerGameKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		cur, err := decodeState(raw)
		if err != nil {
			return err
		}
		updated, err := fn(cur)
		if err != nil {
			return err
		}
		out, err := encodeState(updated)
		if err != nil {
			return err
		}
		if err := txn.SetEntry(s.entry(id, out)); err != nil {
			return err
		}
		next = updated
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return nil, ErrConcurrentUpdate
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerGameKey(id))
	})
}

func (s *BadgerStore) List(ctx context.Context) ([]StoredGame, error) {
	var games []StoredGame
	prefix := []byte(badgerGamePrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), badgerGamePrefix)
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			state, err := decodeState(raw)
			if err != nil {
				return fmt.Errorf("game %s: %w", id, err)
			}
			games = append(games, StoredGame{ID: id, State: state})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list: %w", err)
	}
	sortStored(games)
	return games, nil
}

func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
