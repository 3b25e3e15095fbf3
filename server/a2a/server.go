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

// Package a2a exposes the assistant over the A2A protocol. Every
// inbound message is answered with a single agent message; streaming
// is not supported.
package a2a

import (
	"context"
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	a2a "trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/storeops/sop-agent-go/orchestrator"
)

// Agent card defaults.
const (
	defaultAgentName        = "SOP Assistant"
	defaultAgentDescription = "AI-powered assistant for SOPs"
	defaultAgentVersion     = "1.0.0"

	providerOrganization = "Store Operations"
)

// Handler answers one request with one response.
// *orchestrator.Orchestrator implements it.
type Handler interface {
	Handle(ctx context.Context, request *orchestrator.Request) (*orchestrator.Response, error)
}

// New creates an A2A server serving the given handler. The caller
// owns the lifecycle: Start blocks until Stop is called.
func New(opts ...Option) (*a2a.A2AServer, error) {
	options := newOptions(opts...)

	if options.handler == nil {
		return nil, errors.New("a2a: handler is required")
	}
	if options.host == "" {
		return nil, errors.New("a2a: host is required")
	}

	agentCard := buildAgentCard(options)
	processor := &messageProcessor{handler: options.handler}
	taskManager, err := taskmanager.NewMemoryTaskManager(processor)
	if err != nil {
		return nil, fmt.Errorf("a2a: create task manager: %w", err)
	}
	server, err := a2a.NewA2AServer(agentCard, taskManager, options.extraOptions...)
	if err != nil {
		return nil, fmt.Errorf("a2a: create server: %w", err)
	}
	return server, nil
}

func buildAgentCard(options *options) a2a.AgentCard {
	if options.agentCard != nil {
		return *options.agentCard
	}
	url := options.url
	if url == "" {
		url = fmt.Sprintf("http://%s/", options.host)
	}
	off := false
	return a2a.AgentCard{
		Name:        options.name,
		Description: options.description,
		URL:         url,
		Version:     options.version,
		Provider: &a2a.AgentProvider{
			Organization: providerOrganization,
		},
		Capabilities: a2a.AgentCapabilities{
			Streaming:              &off,
			PushNotifications:      &off,
			StateTransitionHistory: &off,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills:             agentSkills(),
	}
}

func agentSkills() []a2a.AgentSkill {
	return []a2a.AgentSkill{
		{
			ID:          "policy_inquiry",
			Name:        "Store Policy Information",
			Description: stringPtr("Information about store policies, procedures and guidelines for overall operations or specific product categories."),
			Tags:        []string{"policy", "procedures", "guidelines", "sop"},
			Examples: []string{
				"What is the return policy for electronics?",
				"How do I handle customer complaints?",
				"What are the store opening procedures?",
			},
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		},
		{
			ID:          "sop_search",
			Name:        "Standard Operating Procedure Search",
			Description: stringPtr("Search for specific standard operating procedures and operational guidelines."),
			Tags:        []string{"sop", "operations", "procedures"},
			Examples: []string{
				"What is the SOP for handling returns?",
				"Show me the procedure for inventory management",
				"What are the safety protocols?",
			},
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		},
		{
			ID:          "category_policy",
			Name:        "Category-Specific Policies",
			Description: stringPtr("Policy information specific to product categories."),
			Tags:        []string{"policy", "category", "products"},
			Examples: []string{
				"What are the policies for sporting goods?",
				"Tell me about alcohol sales policies",
				"What are the guidelines for handling perishable items?",
			},
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		},
	}
}

// messageProcessor bridges the task manager to the request handler.
type messageProcessor struct {
	handler Handler
}

var _ taskmanager.MessageProcessor = (*messageProcessor)(nil)

// ProcessMessage handles one inbound message and returns the reply as
// a unary result.
func (m *messageProcessor) ProcessMessage(
	ctx context.Context,
	message protocol.Message,
	options taskmanager.ProcessOptions,
	handler taskmanager.TaskHandler,
) (*taskmanager.MessageProcessingResult, error) {
	if options.Streaming {
		return nil, errors.New("a2a: streaming is not supported")
	}

	request := requestFromMessage(message)
	response, err := m.handler.Handle(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("a2a: handle message: %w", err)
	}

	msg := protocol.NewMessage(protocol.MessageRoleAgent,
		[]protocol.Part{protocol.NewTextPart(response.Text)})
	return &taskmanager.MessageProcessingResult{Result: &msg}, nil
}

func stringPtr(s string) *string {
	return &s
}
