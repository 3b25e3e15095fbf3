//
// Store Operations is pleased to support the open source community by making sop-agent-go available.
//
// Copyright (C) 2025 Store Operations.
// All rights reserved.
//
// If you have downloaded a copy of the sop-agent-go source code from Store Operations,
// please note that sop-agent-go source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package badger provides a durable checkpoint store backed by an
// embedded Badger database. It is the default backend: histories live
// in a local data directory and survive process restarts.
package badger

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/storeops/sop-agent-go/checkpoint"
)

var _ checkpoint.Store = (*Store)(nil)

const historyPrefix = "history:"

// Store provides a Badger-backed implementation of checkpoint.Store.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	// Sync writes so acknowledged turns survive a crash.
	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func historyKey(key checkpoint.Key) []byte {
	return []byte(historyPrefix + key.String())
}

// Load returns the history stored for the given key.
func (s *Store) Load(ctx context.Context, key checkpoint.Key, options ...checkpoint.Option) ([]checkpoint.Turn, error) {
	if err := key.Check(); err != nil {
		return nil, err
	}
	opts := &checkpoint.Options{}
	for _, option := range options {
		option(opts)
	}

	history := []checkpoint.Turn{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(historyKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &history)
		})
	})
	if err != nil {
		return nil, err
	}
	if opts.RecentTurns > 0 && len(history) > opts.RecentTurns {
		history = history[len(history)-opts.RecentTurns:]
	}
	return history, nil
}

// Append reads the current history for the key and writes it back
// extended with the new turns in one transaction. Badger detects
// conflicting commits on the same key, so a concurrent writer cannot
// overwrite turns this writer has read; the losing transaction is
// retried on its successor's result.
func (s *Store) Append(ctx context.Context, key checkpoint.Key, turns []checkpoint.Turn) error {
	if err := key.Check(); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	k := historyKey(key)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			var history []checkpoint.Turn
			item, err := txn.Get(k)
			switch {
			case err == nil:
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &history)
				}); err != nil {
					return err
				}
			case errors.Is(err, badger.ErrKeyNotFound):
			default:
				return err
			}
			history = append(history, turns...)
			data, err := json.Marshal(history)
			if err != nil {
				return err
			}
			return txn.Set(k, data)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
