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

// Package openai provides a Generator implementation for OpenAI and
// OpenAI-compatible serving endpoints.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/storeops/sop-agent-go/model"
)

var _ model.Generator = (*Model)(nil)

// options contains configuration options for the OpenAI generator.
type options struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// BaseURL is the OpenAI API base URL, for compatible endpoints.
	BaseURL string
	// OpenAIOptions contains additional request options passed through
	// to the underlying client.
	OpenAIOptions []openaiopt.RequestOption
}

// Option configures the OpenAI generator.
type Option func(*options)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.APIKey = key
	}
}

// WithBaseURL sets the OpenAI API base URL. Serving platforms that
// speak the OpenAI chat protocol are addressed this way.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.BaseURL = url
	}
}

// WithOpenAIOptions appends raw client request options.
func WithOpenAIOptions(openaiOpts ...openaiopt.RequestOption) Option {
	return func(o *options) {
		o.OpenAIOptions = append(o.OpenAIOptions, openaiOpts...)
	}
}

// Model implements model.Generator using the OpenAI chat completion API.
type Model struct {
	name   string
	client openai.Client
}

// New creates an OpenAI generator for the given model name.
func New(name string, opts ...Option) *Model {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var clientOpts []openaiopt.RequestOption
	if o.APIKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.APIKey))
	}
	if o.BaseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.BaseURL))
	}
	clientOpts = append(clientOpts, o.OpenAIOptions...)

	return &Model{
		name:   name,
		client: openai.NewClient(clientOpts...),
	}
}

// Generate sends the rendered prompt as a single user message and
// returns the first choice's content.
func (m *Model) Generate(ctx context.Context, request *model.Request) (*model.Response, error) {
	if request == nil {
		return nil, errors.New("openai: request is nil")
	}

	chatRequest := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(m.name),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(request.Prompt),
		},
	}
	if request.Temperature != nil {
		chatRequest.Temperature = openai.Float(*request.Temperature)
	}

	chatCompletion, err := m.client.Chat.Completions.New(ctx, chatRequest)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, errors.New("openai: response contains no choices")
	}

	return &model.Response{
		Text: strings.TrimSpace(chatCompletion.Choices[0].Message.Content),
	}, nil
}

// Info returns basic information about the model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}
