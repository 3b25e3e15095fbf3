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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sopagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 8001, cfg.Server.AdminPort)
	assert.Equal(t, "SOP Assistant", cfg.Agent.Name)
	assert.Equal(t, "AI-powered assistant for SOPs", cfg.Agent.Description)
	assert.Equal(t, "1.0.0", cfg.Agent.Version)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, BackendBadger, cfg.Checkpoint.Backend)
	assert.Equal(t, "data/checkpoints", cfg.Checkpoint.Path)
	assert.Equal(t, "tenants.json", cfg.Tenants.Path)
	assert.True(t, cfg.Tenants.Watch)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Retrieval.Addresses)
	assert.False(t, cfg.Retrieval.Static)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9100
  admin_port: 9101
log:
  level: debug
checkpoint:
  backend: inmemory
tenants:
  path: /etc/sopagent/tenants.json
  watch: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 9101, cfg.Server.AdminPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, BackendInMemory, cfg.Checkpoint.Backend)
	assert.Equal(t, "/etc/sopagent/tenants.json", cfg.Tenants.Path)
	assert.False(t, cfg.Tenants.Watch)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentVariableOverride(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9100\n")
	t.Setenv("SOPAGENT_PORT", "9200")
	t.Setenv("SOPAGENT_LOG_LEVEL", "WARNING")
	t.Setenv("SOPAGENT_ELASTICSEARCH_ADDRESSES", "http://es-1:9200,http://es-2:9200")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port, "environment overrides the file")
	assert.Equal(t, "warn", cfg.Log.Level, "level spelling is normalized")
	assert.Equal(t, []string{"http://es-1:9200", "http://es-2:9200"}, cfg.Retrieval.Addresses)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Server = ServerConfig{Host: "0.0.0.0", Port: 8000, AdminPort: 8001}
		cfg.Log.Level = "info"
		cfg.Checkpoint = CheckpointConfig{Backend: BackendBadger, Path: "data/checkpoints"}
		cfg.Tenants.Path = "tenants.json"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: ErrInvalidPort,
		},
		{
			name:    "admin port out of range",
			mutate:  func(c *Config) { c.Server.AdminPort = 70000 },
			wantErr: ErrInvalidPort,
		},
		{
			name:    "admin port collides",
			mutate:  func(c *Config) { c.Server.AdminPort = c.Server.Port },
			wantErr: ErrInvalidPort,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Checkpoint.Backend = "sqlite" },
			wantErr: ErrInvalidBackend,
		},
		{
			name: "badger without path",
			mutate: func(c *Config) {
				c.Checkpoint = CheckpointConfig{Backend: BackendBadger}
			},
			wantErr: ErrInvalidBackend,
		},
		{
			name: "redis without url",
			mutate: func(c *Config) {
				c.Checkpoint = CheckpointConfig{Backend: BackendRedis}
			},
			wantErr: ErrInvalidBackend,
		},
		{
			name:    "missing tenant path",
			mutate:  func(c *Config) { c.Tenants.Path = "" },
			wantErr: ErrMissingTenantPath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestAddrHelpers(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "0.0.0.0", Port: 8000, AdminPort: 8001}}

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "0.0.0.0:8001", cfg.AdminAddr())
	assert.Equal(t, "http://0.0.0.0:8000/", cfg.AgentURL())

	cfg.Agent.URL = "https://sop.example.com/"
	assert.Equal(t, "https://sop.example.com/", cfg.AgentURL())
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Checkpoint.RedisURL = "redis://:hunter2@redis:6379"
	cfg.Models.OpenAIAPIKey = "sk-secret-key"
	cfg.Models.GeminiAPIKey = "AIza-secret"
	cfg.Retrieval.Password = "espassword"
	cfg.Retrieval.APIKey = "esapikey"
	cfg.Retrieval.Username = "elastic"

	rendered := cfg.String()

	for _, secret := range []string{"hunter2", "sk-secret-key", "AIza-secret", "espassword", "esapikey"} {
		assert.NotContains(t, rendered, secret)
	}
	assert.Contains(t, rendered, maskedValue)
	assert.Contains(t, rendered, "elastic", "non-sensitive fields stay readable")
}
