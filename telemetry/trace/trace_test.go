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

package trace

import (
	"context"
	"os"
	"testing"
)

func TestTracesEndpoint(t *testing.T) {
	const (
		customEndpoint  = "custom-trace:4317"
		genericEndpoint = "generic-endpoint:4317"
	)

	origTrace := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	origGeneric := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	defer func() {
		_ = os.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", origTrace)
		_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", origGeneric)
	}()

	// Specific variable has precedence over generic.
	_ = os.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", customEndpoint)
	_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", genericEndpoint)
	if ep := tracesEndpoint("grpc"); ep != customEndpoint {
		t.Fatalf("expected %s, got %s", customEndpoint, ep)
	}

	// Fallback to generic when specific is empty.
	_ = os.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", genericEndpoint)
	if ep := tracesEndpoint("grpc"); ep != genericEndpoint {
		t.Fatalf("expected %s, got %s", genericEndpoint, ep)
	}

	// Protocol-specific defaults when none set.
	_ = os.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if ep := tracesEndpoint("grpc"); ep != "localhost:4317" {
		t.Fatalf("expected localhost:4317, got %s", ep)
	}
	if ep := tracesEndpoint("http"); ep != "localhost:4318" {
		t.Fatalf("expected localhost:4318, got %s", ep)
	}
}

func TestParseEndpointURL(t *testing.T) {
	tests := []struct {
		in       string
		endpoint string
		path     string
		wantErr  bool
	}{
		{in: "http://localhost:3000/api/public/otel", endpoint: "localhost:3000", path: "/api/public/otel"},
		{in: "collector:4318", endpoint: "collector:4318", path: "/"},
		{in: "https://collector.example.com/v1/traces", endpoint: "collector.example.com", path: "/v1/traces"},
		{in: "http://", wantErr: true},
	}
	for _, tt := range tests {
		endpoint, path, err := parseEndpointURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseEndpointURL(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseEndpointURL(%q): %v", tt.in, err)
		}
		if endpoint != tt.endpoint || path != tt.path {
			t.Fatalf("parseEndpointURL(%q) = %q, %q; want %q, %q", tt.in, endpoint, path, tt.endpoint, tt.path)
		}
	}
}

// TestStartAndClean exercises the happy-path of Start and returned cleanup.
func TestStartAndClean(t *testing.T) {
	ctx := context.Background()
	clean, err := Start(ctx, WithEndpoint("localhost:4317"))
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if clean == nil {
		t.Fatalf("expected non-nil cleanup function")
	}
	_ = clean() // No collector runs in tests; the flush error is irrelevant.
}
