//
// Store Operations is pleased to support the open source community by making sop-agent-go available.
//
// Copyright (C) 2025 Store Operations.  All rights reserved.
//
// sop-agent-go is licensed under the Apache License Version 2.0.
//
//

package langfuse

import sdktrace "go.opentelemetry.io/otel/sdk/trace"

func newSpanProcessor(e sdktrace.SpanExporter) sdktrace.SpanProcessor {
	return sdktrace.NewBatchSpanProcessor(e)
}
