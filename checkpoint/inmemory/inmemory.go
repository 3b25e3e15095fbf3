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

// Package inmemory provides a volatile checkpoint store implementation.
// It backs the degraded mode entered when no durable backend can be
// opened at startup; histories do not survive a process restart.
package inmemory

import (
	"context"
	"sync"

	"github.com/storeops/sop-agent-go/checkpoint"
)

var _ checkpoint.Store = (*Store)(nil)

// tenantHistories holds the conversations of one tenant.
type tenantHistories struct {
	mu      sync.RWMutex
	threads map[string][]checkpoint.Turn
}

func newTenantHistories() *tenantHistories {
	return &tenantHistories{
		threads: make(map[string][]checkpoint.Turn),
	}
}

// Store provides an in-memory implementation of checkpoint.Store.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*tenantHistories
}

// NewStore creates a new in-memory checkpoint store.
func NewStore() *Store {
	return &Store{
		tenants: make(map[string]*tenantHistories),
	}
}

func (s *Store) getTenant(tenantID string) (*tenantHistories, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	return t, ok
}

func (s *Store) getOrCreateTenant(tenantID string) *tenantHistories {
	s.mu.RLock()
	t, ok := s.tenants[tenantID]
	if ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	s.mu.Lock()
	t, ok = s.tenants[tenantID]
	if ok {
		s.mu.Unlock()
		return t
	}
	t = newTenantHistories()
	s.tenants[tenantID] = t
	s.mu.Unlock()
	return t
}

// Load returns a copy of the history for the given key.
func (s *Store) Load(ctx context.Context, key checkpoint.Key, options ...checkpoint.Option) ([]checkpoint.Turn, error) {
	if err := key.Check(); err != nil {
		return nil, err
	}
	opts := &checkpoint.Options{}
	for _, option := range options {
		option(opts)
	}

	t, ok := s.getTenant(key.TenantID)
	if !ok {
		return []checkpoint.Turn{}, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	history := t.threads[key.ThreadID]
	if opts.RecentTurns > 0 && len(history) > opts.RecentTurns {
		history = history[len(history)-opts.RecentTurns:]
	}
	turns := make([]checkpoint.Turn, len(history))
	copy(turns, history)
	return turns, nil
}

// Append adds turns to the history for the given key.
func (s *Store) Append(ctx context.Context, key checkpoint.Key, turns []checkpoint.Turn) error {
	if err := key.Check(); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	t := s.getOrCreateTenant(key.TenantID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threads[key.ThreadID] = append(t.threads[key.ThreadID], turns...)
	return nil
}

// Close closes the store.
func (s *Store) Close() error {
	return nil
}
