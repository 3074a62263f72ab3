package persist

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// Badger keeps the record in a local BadgerDB under a fixed key.
type Badger struct {
	db  *badger.DB
	key []byte
}

// NewBadger returns a Port over db storing the record under key.
func NewBadger(db *badger.DB, key string) *Badger {
	return &Badger{db: db, key: []byte(key)}
}

func (b *Badger) Get(context.Context) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return out, err
}

func (b *Badger) Set(_ context.Context, data []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, data)
	})
}

func (b *Badger) Remove(context.Context) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key)
	})
}
