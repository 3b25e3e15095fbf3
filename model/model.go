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

// Package model provides interfaces for working with LLMs.
package model

import "context"

// Generator is the interface for all generation backends. The
// pipeline calls it once per stage with a fully rendered prompt; any
// error, including a context deadline, is fatal for that stage.
type Generator interface {
	// Generate produces text for the given request.
	Generate(ctx context.Context, request *Request) (*Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Info contains basic information about a Generator.
type Info struct {
	Name string
}

// Request carries one rendered prompt.
type Request struct {
	// Prompt is the fully rendered prompt text.
	Prompt string

	// Temperature overrides the backend default when set.
	Temperature *float64
}

// Response carries the generated text.
type Response struct {
	// Text is the generated text, trimmed of surrounding whitespace.
	Text string
}
