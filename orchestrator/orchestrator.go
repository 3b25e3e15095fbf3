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

// Package orchestrator turns one inbound request into exactly one
// response. It extracts the tenant and thread identifiers, resolves
// the tenant configuration, binds the tenant's backends and runs the
// pipeline, serializing runs per conversation key. Every failure path
// maps to a single generic reply; internal error detail never reaches
// the caller.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/storeops/sop-agent-go/checkpoint"
	itelemetry "github.com/storeops/sop-agent-go/internal/telemetry"
	"github.com/storeops/sop-agent-go/log"
	"github.com/storeops/sop-agent-go/pipeline"
	ametric "github.com/storeops/sop-agent-go/telemetry/metric"
	atrace "github.com/storeops/sop-agent-go/telemetry/trace"
	"github.com/storeops/sop-agent-go/tenant"
)

// User-facing replies. These are the only texts a caller sees outside
// a normal pipeline answer.
const (
	// EmptyInputPrompt is returned when the request carries no text.
	EmptyInputPrompt = "Please provide a text question."
	// ApologyMessage is returned for every failed request.
	ApologyMessage = "I apologize, but an error occurred while processing your request."
)

// ErrCancelUnsupported reports that in-flight runs cannot be
// cancelled. A run has no safe rollback once a generation call is in
// flight.
var ErrCancelUnsupported = errors.New("orchestrator: cancellation is not supported")

const (
	keyTenantID = "tenant_id"
	keyThreadID = "thread_id"
	keyHeaders  = "headers"

	headerTenantID = "X-Tenant-ID"
)

// Request is one inbound user message, decoded from the transport.
type Request struct {
	// Text is the user's utterance.
	Text string
	// Metadata may carry tenant_id and thread_id.
	Metadata map[string]any
	// Data may carry the same keys and a headers mapping.
	Data map[string]any
}

// Response is the single event emitted back to the caller.
type Response struct {
	Text string
}

// Orchestrator handles requests against a tenant registry and a
// shared checkpoint store.
type Orchestrator struct {
	registry     *tenant.Registry
	store        checkpoint.Store
	binder       Binder
	stageTimeout time.Duration

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	requestCounter metric.Int64Counter
	failureCounter metric.Int64Counter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStageTimeout bounds each backend call of a run.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.stageTimeout = d
		}
	}
}

// New creates an orchestrator.
func New(registry *tenant.Registry, store checkpoint.Store, binder Binder, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.New("orchestrator: tenant registry is required")
	}
	if store == nil {
		return nil, errors.New("orchestrator: checkpoint store is required")
	}
	if binder == nil {
		return nil, errors.New("orchestrator: binder is required")
	}

	o := &Orchestrator{
		registry:     registry,
		store:        store,
		binder:       binder,
		stageTimeout: pipeline.DefaultStageTimeout,
		locks:        make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(o)
	}

	var err error
	o.requestCounter, err = ametric.Meter.Int64Counter("sop_agent_requests_total",
		metric.WithDescription("Total number of handled requests"))
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}
	o.failureCounter, err = ametric.Meter.Int64Counter("sop_agent_request_failures_total",
		metric.WithDescription("Requests answered with the generic failure reply"))
	if err != nil {
		return nil, fmt.Errorf("create failure counter: %w", err)
	}
	return o, nil
}

// Handle runs one request to completion and always produces a
// response. Pipeline and configuration failures are logged and mapped
// to ApologyMessage; an error return means the request itself was
// unusable.
func (o *Orchestrator) Handle(ctx context.Context, request *Request) (*Response, error) {
	if request == nil {
		return nil, errors.New("orchestrator: request is nil")
	}

	ctx, span := atrace.Tracer.Start(ctx, itelemetry.SpanNameHandleRequest)
	defer span.End()

	invocationID := "invocation-" + uuid.New().String()
	tenantID := tenantIDOf(request)
	threadID := threadIDOf(request)
	key := checkpoint.Key{TenantID: tenantID, ThreadID: threadID}
	itelemetry.TraceConversation(span, tenantID, threadID, invocationID)
	o.requestCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(itelemetry.KeyTenantID, tenantID)))
	log.Infof("invocation %s: tenant %s thread %s", invocationID, tenantID, threadID)

	if strings.TrimSpace(request.Text) == "" {
		return &Response{Text: EmptyInputPrompt}, nil
	}

	config, err := o.registry.Resolve(tenantID)
	if err != nil {
		return o.fail(ctx, span, tenantID, invocationID, fmt.Errorf("resolve tenant: %w", err)), nil
	}

	ports, err := o.binder.Bind(ctx, config)
	if err != nil {
		return o.fail(ctx, span, tenantID, invocationID, fmt.Errorf("bind backends: %w", err)), nil
	}

	run, err := pipeline.New(config, o.store, ports.Retriever, ports.Rewriter, ports.Generator,
		pipeline.WithStageTimeout(o.stageTimeout))
	if err != nil {
		return o.fail(ctx, span, tenantID, invocationID, err), nil
	}

	// Whole runs are serialized per key so concurrent same-thread
	// requests cannot both load the same history and fork it.
	lock := o.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	text, err := run.Run(ctx, key, request.Text)
	if err != nil {
		return o.fail(ctx, span, tenantID, invocationID, err), nil
	}
	return &Response{Text: text}, nil
}

// Cancel always fails.
func (o *Orchestrator) Cancel(ctx context.Context, invocationID string) error {
	log.Warnf("invocation %s: cancellation requested", invocationID)
	return fmt.Errorf("cancel invocation %s: %w", invocationID, ErrCancelUnsupported)
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, tenantID, invocationID string, err error) *Response {
	span.SetAttributes(attribute.String(itelemetry.KeyError, err.Error()))
	var failure *pipeline.Failure
	if errors.As(err, &failure) {
		span.SetAttributes(attribute.String(itelemetry.KeyFailureCause, string(failure.Cause)))
	}
	o.failureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(itelemetry.KeyTenantID, tenantID)))
	log.Errorf("invocation %s: tenant %s: request failed: %v", invocationID, tenantID, err)
	return &Response{Text: ApologyMessage}
}

func (o *Orchestrator) lockFor(key checkpoint.Key) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	lock, ok := o.locks[key.String()]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[key.String()] = lock
	}
	return lock
}

// tenantIDOf extracts the tenant identifier. Lookup order: request
// metadata, request data, then the X-Tenant-ID header. Extraction
// never fails; malformed values are skipped and absence means the
// default tenant.
func tenantIDOf(request *Request) string {
	if id := stringValue(request.Metadata, keyTenantID); id != "" {
		return id
	}
	if id := stringValue(request.Data, keyTenantID); id != "" {
		return id
	}
	if id := headerValue(request.Data, headerTenantID); id != "" {
		return id
	}
	return tenant.DefaultTenantID
}

// threadIDOf extracts the thread identifier from metadata then
// request data.
func threadIDOf(request *Request) string {
	if id := stringValue(request.Metadata, keyThreadID); id != "" {
		return id
	}
	if id := stringValue(request.Data, keyThreadID); id != "" {
		return id
	}
	return checkpoint.DefaultThreadID
}

func stringValue(values map[string]any, key string) string {
	if values == nil {
		return ""
	}
	value, ok := values[key]
	if !ok {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// headerValue reads a header from the request data's headers mapping,
// matching the name case-insensitively.
func headerValue(values map[string]any, name string) string {
	if values == nil {
		return ""
	}
	raw, ok := values[keyHeaders]
	if !ok {
		return ""
	}
	headers, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	for header, value := range headers {
		if !strings.EqualFold(header, name) {
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
