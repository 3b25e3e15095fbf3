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

// Package checkpoint provides durable conversation history storage.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// DefaultThreadID scopes all requests that carry no thread identifier
// into one shared conversation per tenant.
const DefaultThreadID = "default_thread"

var (
	// ErrTenantIDRequired is the error for tenant id required.
	ErrTenantIDRequired = errors.New("tenantID is required")
	// ErrThreadIDRequired is the error for thread id required.
	ErrThreadIDRequired = errors.New("threadID is required")
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn written by the agent.
	RoleAssistant Role = "assistant"
)

// Turn is one exchange in a conversation. Histories are ordered
// sequences of turns, append-only; truncation for prompt windows
// happens at read time in the pipeline, never in storage.
type Turn struct {
	Role      Role      `json:"role"`      // Role is the turn author.
	Content   string    `json:"content"`   // Content is the turn text.
	Timestamp time.Time `json:"timestamp"` // Timestamp is the append time in UTC.
}

// NewUserTurn builds a user turn stamped with the current UTC time.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantTurn builds an assistant turn stamped with the current UTC time.
func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

// Key uniquely identifies one conversation's persisted state.
type Key struct {
	TenantID string // tenant id
	ThreadID string // thread id
}

// Check checks if a conversation key is valid.
func (k *Key) Check() error {
	if k.TenantID == "" {
		return ErrTenantIDRequired
	}
	if k.ThreadID == "" {
		return ErrThreadIDRequired
	}
	return nil
}

// String renders the key in the tenant_thread form used as the
// storage namespace.
func (k Key) String() string {
	return k.TenantID + "_" + k.ThreadID
}

// Options is the options for loading a history.
type Options struct {
	RecentTurns int // RecentTurns is the number of most recent turns, 0 means all.
}

// Option is the option for loading a history.
type Option func(*Options)

// WithRecentTurns limits a load to the most recent n turns.
func WithRecentTurns(n int) Option {
	return func(o *Options) {
		o.RecentTurns = n
	}
}

// Store is the interface that all checkpoint stores must implement.
//
// Append must be atomic per key with respect to concurrent writers:
// later writers must not lose earlier writers' turns. Implementations
// persist durably before returning; there is no write-behind buffering.
// Per-key serialization must not serialize unrelated keys against each
// other.
type Store interface {
	// Load returns the full ordered history for a key, an empty slice
	// if the key has never been written.
	Load(ctx context.Context, key Key, options ...Option) ([]Turn, error)

	// Append durably persists new turns for a key in order.
	Append(ctx context.Context, key Key, turns []Turn) error

	// Close closes the store.
	Close() error
}
