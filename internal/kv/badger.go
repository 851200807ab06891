package kv

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tubevault/tubevault/internal/errors"
)

// Badger is a Medium persisted in a Badger database.
// Keys are stored as "origin:{origin}:{key}" so several origins can share a database.
type Badger struct {
	db     *badger.DB
	prefix []byte
	opts   options
}

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string, opts ...Option) (*Badger, error) {
	bopts := badger.DefaultOptions(path)
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	bopts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return NewBadger(db, opts...), nil
}

// NewBadger wraps an already open database. The caller keeps ownership of db
// unless Close is called on the returned medium.
func NewBadger(db *badger.DB, opts ...Option) *Badger {
	o := buildOptions(opts)
	return &Badger{
		db:     db,
		prefix: OriginPrefix(o.origin),
		opts:   o,
	}
}

// OriginPrefix returns the Badger key prefix used for origin.
func OriginPrefix(origin string) []byte {
	return []byte("origin:" + origin + ":")
}

func (b *Badger) key(key string) []byte {
	k := make([]byte, 0, len(b.prefix)+len(key))
	k = append(k, b.prefix...)
	return append(k, key...)
}

// GetItem implements Medium.
func (b *Badger) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var value string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})

	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Storage(err, "badger get")
	}
	return value, true, nil
}

// SetItem implements Medium.
func (b *Badger) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k := b.key(key)
	err := b.db.Update(func(txn *badger.Txn) error {
		if b.opts.quota > 0 {
			used, err := b.usage(txn, k)
			if err != nil {
				return err
			}
			if err := b.opts.checkQuota(used, key, value); err != nil {
				return err
			}
		}
		return txn.Set(k, []byte(value))
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errors.ErrQuotaExceeded):
		return err
	case stderrors.Is(err, badger.ErrTxnTooBig):
		return errors.ErrQuotaExceeded.WithCause(err)
	default:
		return errors.Storage(err, "badger set")
	}
}

// RemoveItem implements Medium.
func (b *Badger) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key(key))
	})
	if err != nil {
		return errors.Storage(err, "badger delete")
	}
	return nil
}

// usage sums logical key and value sizes in the origin, skipping exclude.
func (b *Badger) usage(txn *badger.Txn, exclude []byte) (int64, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = b.prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var used int64
	for it.Seek(b.prefix); it.ValidForPrefix(b.prefix); it.Next() {
		item := it.Item()
		if bytes.Equal(item.Key(), exclude) {
			continue
		}
		used += int64(len(item.Key())-len(b.prefix)) + item.ValueSize()
	}
	return used, nil
}

// Keys lists the logical keys stored in the origin.
func (b *Badger) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = b.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(b.prefix); it.ValidForPrefix(b.prefix); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(b.prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Storage(err, "badger list keys")
	}
	return keys, nil
}

// Close closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}
