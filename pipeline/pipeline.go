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

// Package pipeline runs one conversation turn through three stages:
// rewrite the utterance into a standalone search query, retrieve
// supporting documents, and generate the final answer. The flow is a
// fixed state machine; a failed run leaves conversation history
// untouched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/storeops/sop-agent-go/checkpoint"
	itelemetry "github.com/storeops/sop-agent-go/internal/telemetry"
	"github.com/storeops/sop-agent-go/log"
	"github.com/storeops/sop-agent-go/model"
	"github.com/storeops/sop-agent-go/prompt"
	"github.com/storeops/sop-agent-go/retrieval"
	atrace "github.com/storeops/sop-agent-go/telemetry/trace"
	"github.com/storeops/sop-agent-go/tenant"
)

// Stage identifies one node of the run state machine.
type Stage string

// Stages of a run. Transitions move forward only: rewrite, retrieve,
// generate, done. Rewrite and generate may divert to failed; retrieve
// never does.
const (
	StageRewrite  Stage = "rewrite"
	StageRetrieve Stage = "retrieve"
	StageGenerate Stage = "generate"
	StageDone     Stage = "done"
	StageFailed   Stage = "failed"
)

// Cause classifies why a run entered StageFailed.
type Cause string

// Failure causes.
const (
	CauseRewriteFailed    Cause = "rewrite_failed"
	CauseGenerationFailed Cause = "generation_failed"
)

const (
	// rewriteWindow is how many prior turns the rewrite prompt sees.
	rewriteWindow = 5
	// generateWindow is how many turns, including the new utterance,
	// the answer prompt sees.
	generateWindow = 6
)

// NoContextFound fills the retrieved context when retrieval errors or
// returns no documents.
const NoContextFound = "No relevant policy information found."

// EmptyResponseFallback is the answer of record when the answer model
// returns empty text.
const EmptyResponseFallback = "I could not generate a response."

// DefaultStageTimeout bounds each backend call of a run.
const DefaultStageTimeout = 30 * time.Second

// Failure reports a run that ended in StageFailed. The conversation
// history is exactly as it was before the run.
type Failure struct {
	Cause Cause
	Err   error
}

// Error implements the error interface.
func (e *Failure) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.Cause, e.Err)
}

// Unwrap returns the underlying stage error.
func (e *Failure) Unwrap() error { return e.Err }

// State carries the transient values of one run. Messages holds the
// recent history plus the new user turn; the remaining fields are
// derived stage by stage.
type State struct {
	TenantID         string
	Messages         []checkpoint.Turn
	SearchQuery      string
	RetrievedContext string
	FinalResponse    string
}

// Pipeline executes runs for one resolved tenant configuration. The
// caller serializes runs per conversation key; distinct keys may run
// concurrently.
type Pipeline struct {
	config       *tenant.Config
	store        checkpoint.Store
	retriever    retrieval.Retriever
	rewriter     model.Generator
	generator    model.Generator
	stageTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStageTimeout bounds each backend call. Values <= 0 keep the
// default.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.stageTimeout = d
		}
	}
}

// New builds a pipeline over the given store and ports.
func New(config *tenant.Config, store checkpoint.Store, retriever retrieval.Retriever,
	rewriter, generator model.Generator, opts ...Option) (*Pipeline, error) {
	if config == nil {
		return nil, errors.New("pipeline: tenant config is required")
	}
	if store == nil {
		return nil, errors.New("pipeline: checkpoint store is required")
	}
	if retriever == nil {
		return nil, errors.New("pipeline: retriever is required")
	}
	if rewriter == nil || generator == nil {
		return nil, errors.New("pipeline: rewrite and answer generators are required")
	}

	p := &Pipeline{
		config:       config,
		store:        store,
		retriever:    retriever,
		rewriter:     rewriter,
		generator:    generator,
		stageTimeout: DefaultStageTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes one conversation turn under key and returns the final
// response text. History gains the user turn and the assistant turn
// only when the run reaches StageDone; on StageFailed the returned
// error is a *Failure and nothing is persisted.
func (p *Pipeline) Run(ctx context.Context, key checkpoint.Key, userQuery string) (string, error) {
	if err := key.Check(); err != nil {
		return "", err
	}

	history, err := p.loadHistory(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load history for %s: %w", key.String(), err)
	}

	userTurn := checkpoint.NewUserTurn(userQuery)
	state := &State{
		TenantID: p.config.TenantID,
		Messages: append(history, userTurn),
	}

	stage := StageRewrite
	var cause Cause
	var stageErr error
	for {
		log.Debugf("tenant %s: pipeline stage %s", state.TenantID, stage)
		switch stage {
		case StageRewrite:
			if err := p.rewrite(ctx, state); err != nil {
				cause, stageErr = CauseRewriteFailed, err
				stage = StageFailed
				continue
			}
			stage = StageRetrieve
		case StageRetrieve:
			p.retrieve(ctx, state)
			stage = StageGenerate
		case StageGenerate:
			if err := p.generate(ctx, state); err != nil {
				cause, stageErr = CauseGenerationFailed, err
				stage = StageFailed
				continue
			}
			stage = StageDone
		case StageDone:
			assistantTurn := checkpoint.NewAssistantTurn(state.FinalResponse)
			if err := p.persist(ctx, key, userTurn, assistantTurn); err != nil {
				return "", fmt.Errorf("persist turns for %s: %w", key.String(), err)
			}
			return state.FinalResponse, nil
		case StageFailed:
			log.Errorf("tenant %s: pipeline run failed (%s): %v", state.TenantID, cause, stageErr)
			return "", &Failure{Cause: cause, Err: stageErr}
		}
	}
}

// loadHistory reads the trailing turns of the conversation. The prompt
// windows never look past the last rewriteWindow prior turns, so older
// history stays in storage.
func (p *Pipeline) loadHistory(ctx context.Context, key checkpoint.Key) ([]checkpoint.Turn, error) {
	loadCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	return p.store.Load(loadCtx, key, checkpoint.WithRecentTurns(rewriteWindow))
}

func (p *Pipeline) rewrite(ctx context.Context, state *State) error {
	ctx, span := atrace.Tracer.Start(ctx, itelemetry.SpanNameRewriteQuery)
	defer span.End()

	userQuery := state.Messages[len(state.Messages)-1].Content
	prior := lastTurns(state.Messages[:len(state.Messages)-1], rewriteWindow)
	promptText := prompt.RenderRewrite(p.config.RewritePromptTemplate, prompt.Conversation(prior), userQuery)

	callCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	rsp, err := p.rewriter.Generate(callCtx, &model.Request{
		Prompt:      promptText,
		Temperature: p.config.Models.RewriteTemperature,
	})
	if err != nil {
		span.SetAttributes(attribute.String(itelemetry.KeyError, err.Error()))
		return fmt.Errorf("rewrite model %s: %w", p.rewriter.Info().Name, err)
	}

	state.SearchQuery = strings.TrimSpace(rsp.Text)
	span.SetAttributes(attribute.String(itelemetry.KeySearchQuery, state.SearchQuery))
	log.Infof("tenant %s: generated search query: %q", state.TenantID, state.SearchQuery)
	return nil
}

// retrieve fills State.RetrievedContext. Retrieval is best effort: an
// erroring or empty backend degrades to NoContextFound, never to a
// failed run.
func (p *Pipeline) retrieve(ctx context.Context, state *State) {
	ctx, span := atrace.Tracer.Start(ctx, itelemetry.SpanNameRetrieveContext)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	result, err := p.retriever.Retrieve(callCtx, &retrieval.Query{
		Text:     state.SearchQuery,
		Limit:    p.config.Retrieval.TopK,
		MinScore: p.config.Retrieval.ScoreThreshold,
	})
	if err != nil {
		span.SetAttributes(attribute.String(itelemetry.KeyError, err.Error()))
		log.Warnf("tenant %s: retrieval failed, answering without context: %v", state.TenantID, err)
		state.RetrievedContext = NoContextFound
		return
	}

	var documents []*retrieval.Document
	if result != nil {
		documents = result.Documents
	}
	span.SetAttributes(attribute.Int(itelemetry.KeyDocumentCount, len(documents)))
	log.Infof("tenant %s: retrieved %d documents", state.TenantID, len(documents))
	if len(documents) == 0 {
		state.RetrievedContext = NoContextFound
		return
	}

	blocks := make([]string, 0, len(documents))
	for i, document := range documents {
		source := document.Source
		if source == "" {
			source = "Unknown"
		}
		blocks = append(blocks, fmt.Sprintf("Document %d:\nSource: %s\nContent: %s\nRelevance: %.3f",
			i+1, source, document.Text, document.Score))
	}
	state.RetrievedContext = strings.Join(blocks, "\n\n")
}

func (p *Pipeline) generate(ctx context.Context, state *State) error {
	ctx, span := atrace.Tracer.Start(ctx, itelemetry.SpanNameGenerateResponse)
	defer span.End()

	userQuery := state.Messages[len(state.Messages)-1].Content
	window := lastTurns(state.Messages, generateWindow)
	promptText := prompt.RenderAnswer(p.config.AnswerPromptTemplate,
		prompt.Conversation(window), state.RetrievedContext, userQuery)

	callCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	rsp, err := p.generator.Generate(callCtx, &model.Request{
		Prompt:      promptText,
		Temperature: p.config.Models.AnswerTemperature,
	})
	if err != nil {
		span.SetAttributes(attribute.String(itelemetry.KeyError, err.Error()))
		return fmt.Errorf("answer model %s: %w", p.generator.Info().Name, err)
	}

	text := strings.TrimSpace(rsp.Text)
	if text == "" {
		log.Warnf("tenant %s: answer model returned empty text", state.TenantID)
		text = EmptyResponseFallback
	}
	state.FinalResponse = text
	return nil
}

func (p *Pipeline) persist(ctx context.Context, key checkpoint.Key, turns ...checkpoint.Turn) error {
	appendCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	return p.store.Append(appendCtx, key, turns)
}

// lastTurns returns up to n trailing turns.
func lastTurns(turns []checkpoint.Turn, n int) []checkpoint.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}
