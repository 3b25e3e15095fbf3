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

// Package tenant provides per-tenant configuration and resolution.
package tenant

import (
	"errors"
	"fmt"
)

// DefaultTenantID is the registry entry unknown tenants fall back to.
const DefaultTenantID = "default"

// Defaults applied when a tenant omits the corresponding field.
const (
	defaultTopK               = 7
	defaultRewriteTemperature = 0.1
	defaultAnswerTemperature  = 0.7

	defaultRetrievalEndpoint = "sop-policy-vectors"
	defaultRetrievalIndex    = "agent_brick.default.sop_policy_index"

	// DefaultRewritePromptTemplate is used when a tenant supplies no
	// rewrite template: the raw utterance becomes the search query.
	DefaultRewritePromptTemplate = "Query: {search_query}"
	// DefaultAnswerPromptTemplate is used when a tenant supplies no
	// answer template: the retrieved context alone is the prompt.
	DefaultAnswerPromptTemplate = "{context}"
)

// Model providers selectable per tenant.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var (
	// ErrTenantIDRequired is the error for tenant id required.
	ErrTenantIDRequired = errors.New("tenant id is required")
	// ErrRewriteModelRequired is the error for rewrite model required.
	ErrRewriteModelRequired = errors.New("rewrite model is required")
	// ErrAnswerModelRequired is the error for answer model required.
	ErrAnswerModelRequired = errors.New("answer model is required")
)

// ConfigurationError reports that a tenant could not be resolved:
// the registry holds neither the tenant nor a default entry.
type ConfigurationError struct {
	TenantID string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no configuration for tenant %q and no %q entry", e.TenantID, DefaultTenantID)
}

// Config describes one tenant's pipeline behavior. Configs are
// immutable once published to a registry; a reload replaces the whole
// mapping, it never mutates entries in place.
type Config struct {
	// TenantID is the unique tenant key.
	TenantID string `json:"tenant_id"`
	// RewritePromptTemplate turns a conversation plus the newest user
	// utterance into a standalone search query. Placeholders:
	// {conversation}, {search_query}.
	RewritePromptTemplate string `json:"rewrite_prompt_template"`
	// AnswerPromptTemplate produces the final answer. Placeholders:
	// {conversation}, {context}, {search_query}.
	AnswerPromptTemplate string `json:"answer_prompt_template"`
	// Retrieval parameterizes the tenant's retrieval backend.
	Retrieval RetrievalSettings `json:"retrieval_settings"`
	// Models parameterizes the tenant's generation backends.
	Models ModelSettings `json:"model_settings"`
}

// RetrievalSettings identifies the tenant's retrieval backend and how
// its results are read.
type RetrievalSettings struct {
	// Endpoint is the vector search endpoint name.
	Endpoint string `json:"endpoint"`
	// Index is the index queried within the endpoint.
	Index string `json:"index"`
	// Columns maps document fields to index columns.
	Columns ColumnMapping `json:"columns"`
	// TopK is the number of documents requested, default 7.
	TopK int `json:"top_k"`
	// ScoreThreshold drops results scored below it, 0 keeps all.
	ScoreThreshold float64 `json:"score_threshold"`
}

// ColumnMapping names the index columns holding each document field.
type ColumnMapping struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// ModelSettings selects the tenant's models for both pipeline stages.
type ModelSettings struct {
	// Provider selects the generation backend, default "openai".
	Provider string `json:"provider"`
	// RewriteModel is the model id used for query rewriting.
	RewriteModel string `json:"rewrite_model"`
	// RewriteTemperature defaults to 0.1; rewriting wants short,
	// unambiguous query text.
	RewriteTemperature *float64 `json:"rewrite_temperature"`
	// AnswerModel is the model id used for answer generation.
	AnswerModel string `json:"answer_model"`
	// AnswerTemperature defaults to 0.7.
	AnswerTemperature *float64 `json:"answer_temperature"`
}

// applyDefaults fills unset optional fields with their documented
// defaults.
func (c *Config) applyDefaults() {
	if c.RewritePromptTemplate == "" {
		c.RewritePromptTemplate = DefaultRewritePromptTemplate
	}
	if c.AnswerPromptTemplate == "" {
		c.AnswerPromptTemplate = DefaultAnswerPromptTemplate
	}
	if c.Retrieval.Endpoint == "" {
		c.Retrieval.Endpoint = defaultRetrievalEndpoint
	}
	if c.Retrieval.Index == "" {
		c.Retrieval.Index = defaultRetrievalIndex
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = defaultTopK
	}
	if c.Retrieval.Columns.ID == "" {
		c.Retrieval.Columns.ID = "id"
	}
	if c.Retrieval.Columns.Text == "" {
		c.Retrieval.Columns.Text = "chunk_text"
	}
	if c.Retrieval.Columns.Source == "" {
		c.Retrieval.Columns.Source = "source_path"
	}
	if c.Models.Provider == "" {
		c.Models.Provider = ProviderOpenAI
	}
	if c.Models.RewriteTemperature == nil {
		t := defaultRewriteTemperature
		c.Models.RewriteTemperature = &t
	}
	if c.Models.AnswerTemperature == nil {
		t := defaultAnswerTemperature
		c.Models.AnswerTemperature = &t
	}
}

// validate checks the fields every tenant must supply. Backend
// specific fields such as the retrieval endpoint are checked by the
// backend constructors, not here.
func (c *Config) validate() error {
	if c.TenantID == "" {
		return ErrTenantIDRequired
	}
	if c.Models.RewriteModel == "" {
		return fmt.Errorf("tenant %q: %w", c.TenantID, ErrRewriteModelRequired)
	}
	if c.Models.AnswerModel == "" {
		return fmt.Errorf("tenant %q: %w", c.TenantID, ErrAnswerModelRequired)
	}
	if c.Models.Provider != ProviderOpenAI && c.Models.Provider != ProviderGemini {
		return fmt.Errorf("tenant %q: unknown model provider %q", c.TenantID, c.Models.Provider)
	}
	return nil
}
