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

// Package redis provides a durable checkpoint store backed by Redis.
//
// Storage structure:
// History: tenantID + threadID -> list [Turn(json)], appended with RPUSH
// so concurrent writers on one key serialize inside Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/storeops/sop-agent-go/checkpoint"
)

var _ checkpoint.Store = (*Store)(nil)

// ServiceOpts is the options for the redis checkpoint store.
type ServiceOpts struct {
	url         string
	redisClient redis.UniversalClient
}

// ServiceOption is the option for the redis checkpoint store.
type ServiceOption func(*ServiceOpts)

// WithURL sets the redis url the store connects to.
// scheme: redis://<username>:<password>@<host>:<port>/<db>?<options>
func WithURL(url string) ServiceOption {
	return func(opts *ServiceOpts) {
		opts.url = url
	}
}

// WithRedisClient sets a pre-built redis client, overriding WithURL.
func WithRedisClient(client redis.UniversalClient) ServiceOption {
	return func(opts *ServiceOpts) {
		opts.redisClient = client
	}
}

// Store provides a Redis-backed implementation of checkpoint.Store.
type Store struct {
	client redis.UniversalClient
}

// NewStore creates a new redis checkpoint store.
func NewStore(options ...ServiceOption) (*Store, error) {
	opts := ServiceOpts{}
	for _, option := range options {
		option(&opts)
	}
	if opts.redisClient == nil {
		if opts.url == "" {
			return nil, errors.New("redis client or url is required")
		}
		client, err := buildClient(opts.url)
		if err != nil {
			return nil, err
		}
		opts.redisClient = client
	}
	return &Store{client: opts.redisClient}, nil
}

func buildClient(url string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url %s: %w", url, err)
	}
	universalOpts := &redis.UniversalOptions{
		Addrs:                 []string{opts.Addr},
		DB:                    opts.DB,
		Username:              opts.Username,
		Password:              opts.Password,
		Protocol:              opts.Protocol,
		ClientName:            opts.ClientName,
		TLSConfig:             opts.TLSConfig,
		MaxRetries:            opts.MaxRetries,
		MinRetryBackoff:       opts.MinRetryBackoff,
		MaxRetryBackoff:       opts.MaxRetryBackoff,
		DialTimeout:           opts.DialTimeout,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ContextTimeoutEnabled: opts.ContextTimeoutEnabled,
		PoolFIFO:              opts.PoolFIFO,
		PoolSize:              opts.PoolSize,
		PoolTimeout:           opts.PoolTimeout,
		MinIdleConns:          opts.MinIdleConns,
		MaxIdleConns:          opts.MaxIdleConns,
		MaxActiveConns:        opts.MaxActiveConns,
		ConnMaxIdleTime:       opts.ConnMaxIdleTime,
		ConnMaxLifetime:       opts.ConnMaxLifetime,
	}
	return redis.NewUniversalClient(universalOpts), nil
}

func getHistoryKey(key checkpoint.Key) string {
	return fmt.Sprintf("history:{%s}:%s", key.TenantID, key.ThreadID)
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

	start := int64(0)
	if opts.RecentTurns > 0 {
		start = -int64(opts.RecentTurns)
	}
	turnsBytes, err := s.client.LRange(ctx, getHistoryKey(key), start, -1).Result()
	if err == redis.Nil || len(turnsBytes) == 0 {
		return []checkpoint.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis checkpoint store load failed: %w", err)
	}

	turns := make([]checkpoint.Turn, 0, len(turnsBytes))
	for _, turnBytes := range turnsBytes {
		turn := checkpoint.Turn{}
		if err := json.Unmarshal([]byte(turnBytes), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn failed: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Append pushes the turns onto the key's list in order. A single
// RPUSH carries all turns of the run, so a concurrent writer on the
// same key can never interleave inside them or drop them.
func (s *Store) Append(ctx context.Context, key checkpoint.Key, turns []checkpoint.Turn) error {
	if err := key.Check(); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		turnBytes, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("marshal turn failed: %w", err)
		}
		values = append(values, turnBytes)
	}
	if err := s.client.RPush(ctx, getHistoryKey(key), values...).Err(); err != nil {
		return fmt.Errorf("redis checkpoint store append failed: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
