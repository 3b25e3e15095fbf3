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

package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/sop-agent-go/retrieval"
	"github.com/storeops/sop-agent-go/tenant"
)

func esConfig(index string) *tenant.Config {
	return &tenant.Config{
		TenantID: "default",
		Retrieval: tenant.RetrievalSettings{
			Index:   index,
			Columns: tenant.ColumnMapping{ID: "id", Text: "chunk_text", Source: "source_path"},
		},
		Models: tenant.ModelSettings{
			Provider:     tenant.ProviderOpenAI,
			RewriteModel: "gpt-rewrite",
			AnswerModel:  "gpt-answer",
		},
	}
}

func TestBindOpenAI(t *testing.T) {
	binder := NewBackendBinder(
		WithOpenAIAPIKey("test-key"),
		WithOpenAIBaseURL("http://localhost:8000/v1"),
	)
	defer binder.Close()

	ports, err := binder.Bind(context.Background(), esConfig("sop_policy_index"))
	require.NoError(t, err)
	require.NotNil(t, ports.Retriever)
	assert.Equal(t, "gpt-rewrite", ports.Rewriter.Info().Name)
	assert.Equal(t, "gpt-answer", ports.Generator.Info().Name)
}

func TestBindRequiresIndex(t *testing.T) {
	binder := NewBackendBinder()
	defer binder.Close()

	_, err := binder.Bind(context.Background(), esConfig(""))
	assert.ErrorContains(t, err, "index")
}

func TestBindUnknownProvider(t *testing.T) {
	binder := NewBackendBinder()
	defer binder.Close()

	config := esConfig("sop_policy_index")
	config.Models.Provider = "mystery"
	_, err := binder.Bind(context.Background(), config)
	assert.ErrorContains(t, err, "unsupported model provider")
}

func TestBindGeminiWithoutKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	binder := NewBackendBinder()
	defer binder.Close()

	config := esConfig("sop_policy_index")
	config.Models.Provider = tenant.ProviderGemini
	_, err := binder.Bind(context.Background(), config)
	assert.Error(t, err)
}

func TestBindCachesRetrieverPerSettings(t *testing.T) {
	binder := NewBackendBinder()
	defer binder.Close()

	first, err := binder.Bind(context.Background(), esConfig("sop_policy_index"))
	require.NoError(t, err)
	second, err := binder.Bind(context.Background(), esConfig("sop_policy_index"))
	require.NoError(t, err)
	assert.Same(t, first.Retriever, second.Retriever)

	other, err := binder.Bind(context.Background(), esConfig("another_index"))
	require.NoError(t, err)
	assert.NotSame(t, first.Retriever, other.Retriever)
}

func TestBindStaticRetrieval(t *testing.T) {
	binder := NewBackendBinder(WithStaticRetrieval(retrieval.Document{
		ID:     "doc-1",
		Text:   "Refunds are issued within 30 days of purchase",
		Source: "refunds.md",
	}))
	defer binder.Close()

	// Static mode ignores the index entirely.
	ports, err := binder.Bind(context.Background(), esConfig(""))
	require.NoError(t, err)

	result, err := ports.Retriever.Retrieve(context.Background(), &retrieval.Query{Text: "refunds", Limit: 7})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "doc-1", result.Documents[0].ID)
}

func TestCloseDropsCachedRetrievers(t *testing.T) {
	binder := NewBackendBinder()

	first, err := binder.Bind(context.Background(), esConfig("sop_policy_index"))
	require.NoError(t, err)
	require.NoError(t, binder.Close())

	second, err := binder.Bind(context.Background(), esConfig("sop_policy_index"))
	require.NoError(t, err)
	assert.NotSame(t, first.Retriever, second.Retriever)
	require.NoError(t, binder.Close())
}
