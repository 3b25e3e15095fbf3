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
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// fileSchema is the on-disk shape of a tenant configuration document.
type fileSchema struct {
	Tenants map[string]*Config `json:"tenants"`
}

// LoadFile reads one tenant configuration document. The document maps
// tenant ids to their configs; ids are taken from the map keys.
func LoadFile(path string) (map[string]*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenant config %s: %w", path, err)
	}
	var doc fileSchema
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tenant config %s: %w", path, err)
	}
	if doc.Tenants == nil {
		return nil, fmt.Errorf("tenant config %s: missing tenants object", path)
	}
	configs := make(map[string]*Config, len(doc.Tenants))
	for tenantID, config := range doc.Tenants {
		if config == nil {
			return nil, fmt.Errorf("tenant config %s: tenant %q is null", path, tenantID)
		}
		c := *config
		c.TenantID = tenantID
		configs[tenantID] = &c
	}
	return configs, nil
}

// LoadGlob reads every document matching the doublestar pattern and
// merges them into one mapping. Files load in sorted path order; a
// tenant defined twice is an authoring error and rejects the load.
func LoadGlob(pattern string) (map[string]*Config, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob tenant configs %s: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("glob tenant configs %s: no files matched", pattern)
	}
	sort.Strings(paths)

	merged := make(map[string]*Config)
	for _, path := range paths {
		configs, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for tenantID, config := range configs {
			if _, ok := merged[tenantID]; ok {
				return nil, fmt.Errorf("tenant %q defined more than once (last in %s)", tenantID, path)
			}
			merged[tenantID] = config
		}
	}
	return merged, nil
}
