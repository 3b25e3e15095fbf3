//
// Store Operations is pleased to support the open source community by making sop-agent-go available.
//
// Copyright (C) 2025 Store Operations.  All rights reserved.
//
// sop-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the shared identifiers and attribute keys for
// tracing and metrics across the agent.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// telemetry service constants.
const (
	ServiceName      = "sop-agent"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "storeops"
	InstrumentName   = "storeops.sop.agent"

	SpanNameHandleRequest    = "handle_request"
	SpanNameRewriteQuery     = "rewrite_query"
	SpanNameRetrieveContext  = "retrieve_context"
	SpanNameGenerateResponse = "generate_response"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// telemetry attributes constants.
var (
	KeyTenantID      = "storeops.sop.agent.tenant_id"
	KeyThreadID      = "storeops.sop.agent.thread_id"
	KeyInvocationID  = "storeops.sop.agent.invocation_id"
	KeySearchQuery   = "storeops.sop.agent.search_query"
	KeyDocumentCount = "storeops.sop.agent.document_count"
	KeyFailureCause  = "storeops.sop.agent.failure_cause"
	KeyError         = "storeops.sop.agent.error"
)

// TraceConversation stamps the conversation identifiers on a span.
func TraceConversation(span trace.Span, tenantID, threadID, invocationID string) {
	span.SetAttributes(
		attribute.String(KeyTenantID, tenantID),
		attribute.String(KeyThreadID, threadID),
		attribute.String(KeyInvocationID, invocationID),
	)
}

// NewGRPCConn creates a new gRPC connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	// Note the use of insecure transport here. TLS is recommended in production.
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}

	return conn, err
}
