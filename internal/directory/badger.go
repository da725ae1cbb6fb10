package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

// Badger stores users in BadgerDB under "user:{id}" keys as JSON.
type Badger struct {
	db *badger.DB
}

var _ core.UserDirectory = (*Badger)(nil)

// OpenBadger opens the directory at path. An empty path keeps it in memory.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger directory: %w", err)
	}
	log.Info().Str("module", "directory").Str("path", path).Msg("badger directory opened")
	return &Badger{db: db}, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func userKey(id domain.UserID) []byte {
	return []byte("user:" + string(id))
}

func (b *Badger) Put(_ context.Context, u domain.User) error {
	if u.ID == "" {
		return domain.ErrUserIDEmpty
	}
	bytes, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(u.ID), bytes)
	})
}

func (b *Badger) Lookup(_ context.Context, id domain.UserID) (*domain.User, error) {
	var u domain.User
	err := b.db.View(func(txn *badger.Txn) error {
		return getUser(txn, id, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (b *Badger) SetStatus(_ context.Context, id domain.UserID, status domain.Status, at time.Time) error {
	return b.db.Update(func(txn *badger.Txn) error {
		var u domain.User
		if err := getUser(txn, id, &u); err != nil {
			return err
		}
		u.Status = status
		u.LastActiveAt = at
		bytes, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), bytes)
	})
}

func getUser(txn *badger.Txn, id domain.UserID, u *domain.User) error {
	item, err := txn.Get(userKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, u)
	})
}
