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

// Package retrieval provides interfaces for policy document retrieval.
package retrieval

import (
	"context"
)

// Retriever defines the interface for retrieving relevant documents
// based on queries. "No results" is an empty Result, not an error;
// errors report transport or backend failure, which callers treat as
// best-effort.
type Retriever interface {
	// Retrieve finds the most relevant documents for a given query.
	Retrieve(ctx context.Context, query *Query) (*Result, error)

	// Close closes the retriever and releases resources.
	Close() error
}

// Query represents a retrieval query.
type Query struct {
	// Text is the query text for semantic search.
	Text string

	// Limit specifies the number of documents to retrieve.
	Limit int

	// MinScore specifies the minimum relevance score threshold, 0 keeps all.
	MinScore float64
}

// Result represents the result of a retrieval operation. Document
// ordering is backend-defined, typically descending score; callers do
// not re-sort.
type Result struct {
	// Documents contains the retrieved documents with relevance scores.
	Documents []*Document
}

// Document is one retrieved policy chunk.
type Document struct {
	// ID is the backend identifier of the chunk.
	ID string

	// Score is the relevance score, higher is more relevant.
	Score float64

	// Text is the chunk content.
	Text string

	// Source is a free-form provenance string, typically the document path.
	Source string
}
