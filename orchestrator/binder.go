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

package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/storeops/sop-agent-go/log"
	"github.com/storeops/sop-agent-go/model"
	"github.com/storeops/sop-agent-go/model/gemini"
	"github.com/storeops/sop-agent-go/model/openai"
	"github.com/storeops/sop-agent-go/retrieval"
	"github.com/storeops/sop-agent-go/retrieval/elasticsearch"
	"github.com/storeops/sop-agent-go/retrieval/inmemory"
	"github.com/storeops/sop-agent-go/tenant"
)

// Ports bundles the backends bound to one tenant for a single run.
type Ports struct {
	Retriever retrieval.Retriever
	Rewriter  model.Generator
	Generator model.Generator
}

// Binder binds backend ports to a tenant's settings.
type Binder interface {
	Bind(ctx context.Context, config *tenant.Config) (*Ports, error)
}

type backendOptions struct {
	openAIAPIKey  string
	openAIBaseURL string
	geminiAPIKey  string
	esAddresses   []string
	esUsername    string
	esPassword    string
	esAPIKey      string
	staticDocs    []retrieval.Document
	static        bool
}

// BackendOption configures a BackendBinder.
type BackendOption func(*backendOptions)

// WithOpenAIAPIKey sets the API key used by openai-provider tenants.
func WithOpenAIAPIKey(key string) BackendOption {
	return func(o *backendOptions) {
		o.openAIAPIKey = key
	}
}

// WithOpenAIBaseURL points openai-provider tenants at an
// OpenAI-compatible serving endpoint.
func WithOpenAIBaseURL(url string) BackendOption {
	return func(o *backendOptions) {
		o.openAIBaseURL = url
	}
}

// WithGeminiAPIKey sets the API key used by gemini-provider tenants.
func WithGeminiAPIKey(key string) BackendOption {
	return func(o *backendOptions) {
		o.geminiAPIKey = key
	}
}

// WithElasticsearchAddresses sets the retrieval cluster addresses.
func WithElasticsearchAddresses(addresses []string) BackendOption {
	return func(o *backendOptions) {
		o.esAddresses = addresses
	}
}

// WithElasticsearchBasicAuth sets basic auth for the retrieval cluster.
func WithElasticsearchBasicAuth(username, password string) BackendOption {
	return func(o *backendOptions) {
		o.esUsername = username
		o.esPassword = password
	}
}

// WithElasticsearchAPIKey sets API key auth for the retrieval cluster.
func WithElasticsearchAPIKey(key string) BackendOption {
	return func(o *backendOptions) {
		o.esAPIKey = key
	}
}

// WithStaticRetrieval replaces the Elasticsearch backend with an
// in-memory retriever seeded with docs. Meant for local development
// where no search cluster is running.
func WithStaticRetrieval(docs ...retrieval.Document) BackendOption {
	return func(o *backendOptions) {
		o.static = true
		o.staticDocs = docs
	}
}

// BackendBinder is the production Binder. Generators are cheap and
// built per call; retrievers hold client connections, so they are
// cached per retrieval settings and live until Close.
type BackendBinder struct {
	opts backendOptions

	mu         sync.Mutex
	retrievers map[string]retrieval.Retriever
}

var _ Binder = (*BackendBinder)(nil)

// NewBackendBinder creates a binder for the given backend credentials.
func NewBackendBinder(opts ...BackendOption) *BackendBinder {
	var o backendOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &BackendBinder{
		opts:       o,
		retrievers: make(map[string]retrieval.Retriever),
	}
}

// Bind builds the ports for one tenant.
func (b *BackendBinder) Bind(ctx context.Context, config *tenant.Config) (*Ports, error) {
	retriever, err := b.retrieverFor(config)
	if err != nil {
		return nil, fmt.Errorf("bind retriever for tenant %s: %w", config.TenantID, err)
	}
	rewriter, err := b.generatorFor(ctx, config.Models.Provider, config.Models.RewriteModel)
	if err != nil {
		return nil, fmt.Errorf("bind rewrite model for tenant %s: %w", config.TenantID, err)
	}
	generator, err := b.generatorFor(ctx, config.Models.Provider, config.Models.AnswerModel)
	if err != nil {
		return nil, fmt.Errorf("bind answer model for tenant %s: %w", config.TenantID, err)
	}
	return &Ports{Retriever: retriever, Rewriter: rewriter, Generator: generator}, nil
}

func (b *BackendBinder) generatorFor(ctx context.Context, provider, name string) (model.Generator, error) {
	switch provider {
	case tenant.ProviderOpenAI:
		var opts []openai.Option
		if b.opts.openAIAPIKey != "" {
			opts = append(opts, openai.WithAPIKey(b.opts.openAIAPIKey))
		}
		if b.opts.openAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(b.opts.openAIBaseURL))
		}
		return openai.New(name, opts...), nil
	case tenant.ProviderGemini:
		var opts []gemini.Option
		if b.opts.geminiAPIKey != "" {
			opts = append(opts, gemini.WithAPIKey(b.opts.geminiAPIKey))
		}
		return gemini.New(ctx, name, opts...)
	default:
		return nil, fmt.Errorf("unsupported model provider %q", provider)
	}
}

// retrieverFor returns the retriever for the tenant's retrieval
// settings, building it on first use. The cache key covers every
// field the retriever is built from, so a reload that changes the
// settings binds a fresh retriever instead of reusing a stale one.
func (b *BackendBinder) retrieverFor(config *tenant.Config) (retrieval.Retriever, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.opts.static {
		key := "static"
		if r, ok := b.retrievers[key]; ok {
			return r, nil
		}
		r := inmemory.NewRetriever(b.opts.staticDocs...)
		b.retrievers[key] = r
		return r, nil
	}

	settings := config.Retrieval
	key := fmt.Sprintf("%s|%s|%s|%s|%s",
		settings.Endpoint, settings.Index,
		settings.Columns.ID, settings.Columns.Text, settings.Columns.Source)
	if r, ok := b.retrievers[key]; ok {
		return r, nil
	}

	r, err := elasticsearch.New(
		elasticsearch.WithAddresses(b.opts.esAddresses),
		elasticsearch.WithUsername(b.opts.esUsername),
		elasticsearch.WithPassword(b.opts.esPassword),
		elasticsearch.WithAPIKey(b.opts.esAPIKey),
		elasticsearch.WithIndex(settings.Index),
		elasticsearch.WithColumns(elasticsearch.Columns{
			ID:     settings.Columns.ID,
			Text:   settings.Columns.Text,
			Source: settings.Columns.Source,
		}),
	)
	if err != nil {
		return nil, err
	}
	log.Infof("tenant %s: bound elasticsearch retriever, endpoint %q index %q",
		config.TenantID, settings.Endpoint, settings.Index)
	b.retrievers[key] = r
	return r, nil
}

// Close releases every cached retriever.
func (b *BackendBinder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var firstErr error
	for key, r := range b.retrievers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(b.retrievers, key)
	}
	return firstErr
}
