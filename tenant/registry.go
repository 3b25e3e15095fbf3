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

package tenant

import (
	"sort"
	"sync/atomic"

	"github.com/storeops/sop-agent-go/log"
)

// Registry resolves tenant identifiers to their configuration.
//
// The tenant mapping is published as an immutable snapshot behind an
// atomic pointer: readers always observe a complete mapping, and a
// reload swaps the whole snapshot in one store. Resolved configs are
// shared and must not be mutated by callers.
type Registry struct {
	snapshot atomic.Pointer[map[string]*Config]
}

// NewRegistry creates a registry holding the given tenant mapping.
// Every config is defaulted and validated before the registry becomes
// visible; a single invalid tenant rejects the whole mapping.
func NewRegistry(configs map[string]*Config) (*Registry, error) {
	r := &Registry{}
	if err := r.Reload(configs); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve returns the configuration for tenantID. Unknown tenants
// fall back to the "default" entry; the fallback is logged so traffic
// from unconfigured tenants stays observable. With no default entry
// resolution fails with a ConfigurationError.
func (r *Registry) Resolve(tenantID string) (*Config, error) {
	configs := *r.snapshot.Load()
	if config, ok := configs[tenantID]; ok {
		return config, nil
	}
	if config, ok := configs[DefaultTenantID]; ok {
		log.Warnf("tenant %q has no configuration, falling back to %q", tenantID, DefaultTenantID)
		return config, nil
	}
	return nil, &ConfigurationError{TenantID: tenantID}
}

// Reload atomically replaces the entire tenant mapping. The incoming
// configs are copied, defaulted and validated before the swap, so a
// failed reload leaves the previous snapshot untouched and readers
// never observe a partially updated mapping. There is no per-tenant
// partial update; replacing one tenant means supplying the full
// mapping.
func (r *Registry) Reload(configs map[string]*Config) error {
	next := make(map[string]*Config, len(configs))
	for tenantID, config := range configs {
		c := *config
		if c.TenantID == "" {
			c.TenantID = tenantID
		}
		c.applyDefaults()
		if err := c.validate(); err != nil {
			return err
		}
		next[tenantID] = &c
	}
	r.snapshot.Store(&next)
	return nil
}

// TenantIDs returns the configured tenant ids in sorted order.
func (r *Registry) TenantIDs() []string {
	configs := *r.snapshot.Load()
	ids := make([]string, 0, len(configs))
	for tenantID := range configs {
		ids = append(ids, tenantID)
	}
	sort.Strings(ids)
	return ids
}
