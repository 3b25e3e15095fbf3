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

// Package gemini provides a Generator implementation for the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/storeops/sop-agent-go/model"
)

// GoogleAPIKeyEnv is the environment variable name for the Google API key.
const GoogleAPIKeyEnv = "GOOGLE_API_KEY"

var _ model.Generator = (*Model)(nil)

// Model implements model.Generator using the Gemini API.
type Model struct {
	client        *genai.Client
	name          string
	apiKey        string
	clientOptions *genai.ClientConfig
}

// Option represents a functional option for configuring the Model.
type Option func(*Model)

// WithAPIKey sets the Google API key.
// If not provided, will use GOOGLE_API_KEY environment variable.
// APIKey priority: WithClientOptions > WithAPIKey > GOOGLE_API_KEY environment variable.
func WithAPIKey(apiKey string) Option {
	return func(m *Model) {
		m.apiKey = apiKey
	}
}

// WithClientOptions sets additional options for the Gemini client config.
// APIKey priority: WithClientOptions > WithAPIKey > GOOGLE_API_KEY environment variable.
func WithClientOptions(clientOptions *genai.ClientConfig) Option {
	return func(m *Model) {
		c := *clientOptions
		m.clientOptions = &c
	}
}

// New creates a new Gemini generator for the given model name.
func New(ctx context.Context, name string, opts ...Option) (*Model, error) {
	m := &Model{
		name:          name,
		apiKey:        os.Getenv(GoogleAPIKeyEnv),
		clientOptions: &genai.ClientConfig{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clientOptions.APIKey == "" {
		m.clientOptions.APIKey = m.apiKey
	}
	if m.clientOptions.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not provided")
	}

	client, err := genai.NewClient(ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	m.client = client
	return m, nil
}

// Generate sends the rendered prompt and returns the response text.
func (m *Model) Generate(ctx context.Context, request *model.Request) (*model.Response, error) {
	if request == nil {
		return nil, errors.New("gemini: request is nil")
	}

	config := &genai.GenerateContentConfig{}
	if request.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*request.Temperature))
	}

	response, err := m.client.Models.GenerateContent(ctx, m.name, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	text := response.Text()
	if text == "" {
		return nil, errors.New("gemini: response contains no text")
	}

	return &model.Response{Text: strings.TrimSpace(text)}, nil
}

// Info returns basic information about the model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}
