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

// Package config loads service configuration. Sources are merged in
// priority order: environment variables, then an optional YAML file,
// then built-in defaults. Tenant behavior lives elsewhere; this package
// only covers process-level settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidPort marks a listen port outside 1-65535.
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidLogLevel marks an unrecognized log level.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidBackend marks an unknown checkpoint backend name.
	ErrInvalidBackend = errors.New("invalid checkpoint backend")
	// ErrMissingTenantPath marks a missing tenant configuration path.
	ErrMissingTenantPath = errors.New("missing tenant configuration path")
)

// Checkpoint backend identifiers used in CheckpointConfig.Backend.
const (
	BackendBadger   = "badger"
	BackendRedis    = "redis"
	BackendInMemory = "inmemory"
)

// ServerConfig carries the listen addresses for both HTTP surfaces.
type ServerConfig struct {
	Host      string `mapstructure:"host" json:"host"`
	Port      int    `mapstructure:"port" json:"port"`
	AdminPort int    `mapstructure:"admin_port" json:"admin_port"`
}

// AgentConfig carries the metadata published on the agent card.
type AgentConfig struct {
	Name        string `mapstructure:"name" json:"name"`
	Description string `mapstructure:"description" json:"description"`
	Version     string `mapstructure:"version" json:"version"`
	// URL is the externally reachable base URL. When empty the card
	// advertises the listen address instead.
	URL string `mapstructure:"url" json:"url"`
}

// LogConfig carries logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// CheckpointConfig selects and parameterizes the conversation store.
type CheckpointConfig struct {
	Backend  string `mapstructure:"backend" json:"backend"`
	Path     string `mapstructure:"path" json:"path"`
	RedisURL string `mapstructure:"redis_url" json:"redis_url"` // sensitive: masked in MarshalJSON
}

// TenantsConfig locates the tenant configuration source.
type TenantsConfig struct {
	// Path is a file path or glob pattern of tenant configuration
	// documents.
	Path  string `mapstructure:"path" json:"path"`
	Watch bool   `mapstructure:"watch" json:"watch"`
}

// ModelsConfig carries credentials for the generation backends.
type ModelsConfig struct {
	OpenAIAPIKey  string `mapstructure:"openai_api_key" json:"openai_api_key"` // sensitive: masked in MarshalJSON
	OpenAIBaseURL string `mapstructure:"openai_base_url" json:"openai_base_url"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key" json:"gemini_api_key"` // sensitive: masked in MarshalJSON
}

// RetrievalConfig carries the shared retrieval cluster settings. The
// per-tenant endpoint and index live in the tenant configuration.
type RetrievalConfig struct {
	Addresses []string `mapstructure:"addresses" json:"addresses"`
	Username  string   `mapstructure:"username" json:"username"`
	Password  string   `mapstructure:"password" json:"password"` // sensitive: masked in MarshalJSON
	APIKey    string   `mapstructure:"api_key" json:"api_key"`   // sensitive: masked in MarshalJSON
	// Static serves retrieval from seeded in-process documents instead
	// of a search cluster. Intended for development.
	Static bool `mapstructure:"static" json:"static"`
}

// TelemetryConfig carries the OTLP exporter endpoints. An empty
// endpoint leaves that signal on the no-op provider.
type TelemetryConfig struct {
	TraceEndpoint  string `mapstructure:"trace_endpoint" json:"trace_endpoint"`
	MetricEndpoint string `mapstructure:"metric_endpoint" json:"metric_endpoint"`
}

// Config stores the process configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" json:"server"`
	Agent      AgentConfig      `mapstructure:"agent" json:"agent"`
	Log        LogConfig        `mapstructure:"log" json:"log"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint" json:"checkpoint"`
	Tenants    TenantsConfig    `mapstructure:"tenants" json:"tenants"`
	Models     ModelsConfig     `mapstructure:"models" json:"models"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval" json:"retrieval"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" json:"telemetry"`
}

// Load reads configuration from the given YAML file, environment
// variables and defaults, then validates the result. An empty path
// searches for sopagent.yaml in the working directory; a missing file
// is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind environment variables: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("sopagent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.admin_port", 8001)

	v.SetDefault("agent.name", "SOP Assistant")
	v.SetDefault("agent.description", "AI-powered assistant for SOPs")
	v.SetDefault("agent.version", "1.0.0")

	v.SetDefault("log.level", "info")

	v.SetDefault("checkpoint.backend", BackendBadger)
	v.SetDefault("checkpoint.path", "data/checkpoints")
	v.SetDefault("checkpoint.redis_url", "redis://127.0.0.1:6379")

	v.SetDefault("tenants.path", "tenants.json")
	v.SetDefault("tenants.watch", true)

	v.SetDefault("retrieval.addresses", []string{"http://localhost:9200"})
}

// bindEnv wires each key to its environment variable. Vendor
// credentials keep their vendor-standard names; everything else takes
// the SOPAGENT prefix.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"server.host":               "SOPAGENT_HOST",
		"server.port":               "SOPAGENT_PORT",
		"server.admin_port":         "SOPAGENT_ADMIN_PORT",
		"agent.name":                "SOPAGENT_AGENT_NAME",
		"agent.description":         "SOPAGENT_AGENT_DESCRIPTION",
		"agent.version":             "SOPAGENT_AGENT_VERSION",
		"agent.url":                 "SOPAGENT_AGENT_URL",
		"log.level":                 "SOPAGENT_LOG_LEVEL",
		"checkpoint.backend":        "SOPAGENT_CHECKPOINT_BACKEND",
		"checkpoint.path":           "SOPAGENT_CHECKPOINT_PATH",
		"checkpoint.redis_url":      "SOPAGENT_REDIS_URL",
		"tenants.path":              "SOPAGENT_TENANTS_PATH",
		"tenants.watch":             "SOPAGENT_TENANTS_WATCH",
		"models.openai_api_key":     "OPENAI_API_KEY",
		"models.openai_base_url":    "OPENAI_BASE_URL",
		"models.gemini_api_key":     "GOOGLE_API_KEY",
		"retrieval.addresses":       "SOPAGENT_ELASTICSEARCH_ADDRESSES",
		"retrieval.username":        "SOPAGENT_ELASTICSEARCH_USERNAME",
		"retrieval.password":        "SOPAGENT_ELASTICSEARCH_PASSWORD",
		"retrieval.api_key":         "SOPAGENT_ELASTICSEARCH_API_KEY",
		"retrieval.static":          "SOPAGENT_RETRIEVAL_STATIC",
		"telemetry.trace_endpoint":  "SOPAGENT_TRACE_ENDPOINT",
		"telemetry.metric_endpoint": "SOPAGENT_METRIC_ENDPOINT",
	}
	for key, envVar := range bindings {
		if err := v.BindEnv(key, envVar); err != nil {
			return err
		}
	}
	return nil
}

// normalize folds level and backend spellings so the rest of the
// process never has to.
func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "warning" {
		c.Log.Level = "warn"
	}
	c.Checkpoint.Backend = strings.ToLower(strings.TrimSpace(c.Checkpoint.Backend))
}

// Validate checks the configuration and reports the first problem
// found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d", ErrInvalidPort, c.Server.Port)
	}
	if c.Server.AdminPort < 1 || c.Server.AdminPort > 65535 {
		return fmt.Errorf("%w: server.admin_port %d", ErrInvalidPort, c.Server.AdminPort)
	}
	if c.Server.AdminPort == c.Server.Port {
		return fmt.Errorf("%w: server.admin_port equals server.port", ErrInvalidPort)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	switch c.Checkpoint.Backend {
	case BackendBadger:
		if c.Checkpoint.Path == "" {
			return fmt.Errorf("%w: badger requires checkpoint.path", ErrInvalidBackend)
		}
	case BackendRedis:
		if c.Checkpoint.RedisURL == "" {
			return fmt.Errorf("%w: redis requires checkpoint.redis_url", ErrInvalidBackend)
		}
	case BackendInMemory:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Checkpoint.Backend)
	}
	if c.Tenants.Path == "" {
		return ErrMissingTenantPath
	}
	return nil
}

// Addr returns the listen address of the agent server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AdminAddr returns the listen address of the admin server.
func (c *Config) AdminAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.AdminPort)
}

// AgentURL returns the base URL advertised on the agent card.
func (c *Config) AgentURL() string {
	if c.Agent.URL != "" {
		return c.Agent.URL
	}
	return fmt.Sprintf("http://%s/", c.Addr())
}

const maskedValue = "********"

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return maskedValue
}

// MarshalJSON masks credentials so the configuration can be logged.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.Checkpoint.RedisURL = maskSecret(a.Checkpoint.RedisURL)
	a.Models.OpenAIAPIKey = maskSecret(a.Models.OpenAIAPIKey)
	a.Models.GeminiAPIKey = maskSecret(a.Models.GeminiAPIKey)
	a.Retrieval.Password = maskSecret(a.Retrieval.Password)
	a.Retrieval.APIKey = maskSecret(a.Retrieval.APIKey)
	return json.Marshal(a)
}

// String renders the masked configuration.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
