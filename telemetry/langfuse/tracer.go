//
// Store Operations is pleased to support the open source community by making sop-agent-go available.
//
// Copyright (C) 2025 Store Operations.  All rights reserved.
//
// sop-agent-go is licensed under the Apache License Version 2.0.
//
//

package langfuse

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace/noop"

	itelemetry "github.com/storeops/sop-agent-go/internal/telemetry"
	atrace "github.com/storeops/sop-agent-go/telemetry/trace"
)

// Start exports spans to Langfuse. When trace.Start already installed
// an SDK provider, the Langfuse processor is registered on it so spans
// flow to both the collector and Langfuse; otherwise a dedicated
// provider is created.
func Start(ctx context.Context, opts ...Option) (clean func(context.Context) error, err error) {
	config := newConfigFromEnv()
	for _, opt := range opts {
		opt(config)
	}

	if config.secretKey == "" || config.publicKey == "" || config.host == "" {
		return nil, fmt.Errorf("langfuse: secret key, public key and host must be provided")
	}

	otelOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.host),
		otlptracehttp.WithHeaders(map[string]string{
			"Authorization": fmt.Sprintf("Basic %s", encodeAuth(config.publicKey, config.secretKey)),
		}),
		otlptracehttp.WithURLPath("/api/public/otel/v1/traces"),
	}
	if config.insecure {
		otelOpts = append(otelOpts, otlptracehttp.WithInsecure())
	}

	return start(ctx, otelOpts...)
}

func start(ctx context.Context, opts ...otlptracehttp.Option) (clean func(context.Context) error, err error) {
	p := atrace.TracerProvider
	_, isNoop := p.(noop.TracerProvider)
	var provider *sdktrace.TracerProvider
	if !isNoop {
		var ok bool
		provider, ok = p.(*sdktrace.TracerProvider)
		if !ok {
			return nil, fmt.Errorf("langfuse: global tracer provider is not an SDK provider")
		}
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("langfuse: failed to create trace exporter: %w", err)
	}
	processor := newSpanProcessor(exporter)
	if provider == nil {
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNamespace(itelemetry.ServiceNamespace),
				semconv.ServiceName(itelemetry.ServiceName),
				semconv.ServiceVersion(itelemetry.ServiceVersion),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("langfuse: failed to create resource: %w", err)
		}
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithResource(res),
			sdktrace.WithSpanProcessor(processor),
		)
		atrace.TracerProvider = provider
	} else {
		provider.RegisterSpanProcessor(processor)
	}

	atrace.Tracer = provider.Tracer(itelemetry.InstrumentName)
	return provider.Shutdown, nil
}

// encodeAuth encodes the public and secret keys for basic authentication.
func encodeAuth(pk, sk string) string {
	auth := pk + ":" + sk
	return base64.StdEncoding.EncodeToString([]byte(auth))
}
