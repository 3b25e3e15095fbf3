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

package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/sop-agent-go/retrieval"
)

func seededRetriever() *Retriever {
	return NewRetriever(
		retrieval.Document{ID: "returns", Text: "Returns are accepted within 30 days of purchase", Source: "policy.pdf"},
		retrieval.Document{ID: "hours", Text: "Store hours are nine to five on weekdays", Source: "hours.pdf"},
		retrieval.Document{ID: "refunds", Text: "Refunds for returns are issued to the original payment method", Source: "refunds.pdf"},
	)
}

func TestRetrieveRanksByOverlap(t *testing.T) {
	r := seededRetriever()
	defer r.Close()

	result, err := r.Retrieve(context.Background(), &retrieval.Query{Text: "returns accepted days", Limit: 7})
	require.NoError(t, err)
	require.NotEmpty(t, result.Documents)
	assert.Equal(t, "returns", result.Documents[0].ID)
	assert.Greater(t, result.Documents[0].Score, 0.0)
}

func TestRetrieveLimit(t *testing.T) {
	r := seededRetriever()
	defer r.Close()

	result, err := r.Retrieve(context.Background(), &retrieval.Query{Text: "returns refunds", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, result.Documents, 1)
}

func TestRetrieveMinScore(t *testing.T) {
	r := seededRetriever()
	defer r.Close()

	result, err := r.Retrieve(context.Background(), &retrieval.Query{Text: "returns zebra unicorn", MinScore: 0.9})
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
}

func TestRetrieveNoMatches(t *testing.T) {
	r := seededRetriever()
	defer r.Close()

	result, err := r.Retrieve(context.Background(), &retrieval.Query{Text: "zebra"})
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
}

func TestRetrieveEmptyQuery(t *testing.T) {
	r := seededRetriever()
	defer r.Close()

	result, err := r.Retrieve(context.Background(), &retrieval.Query{Text: "   "})
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
}

func TestAdd(t *testing.T) {
	r := NewRetriever()
	defer r.Close()
	r.Add(retrieval.Document{ID: "new", Text: "Holiday schedule for the store"})

	result, err := r.Retrieve(context.Background(), &retrieval.Query{Text: "holiday schedule"})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "new", result.Documents[0].ID)
}
