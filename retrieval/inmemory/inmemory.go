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

// Package inmemory provides a Retriever over a seeded document set.
// It serves local development and tests where no search backend is
// reachable; scoring is plain term overlap, not semantic.
package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/storeops/sop-agent-go/retrieval"
)

var _ retrieval.Retriever = (*Retriever)(nil)

// Retriever holds the seeded documents.
type Retriever struct {
	mu   sync.RWMutex
	docs []retrieval.Document
}

// NewRetriever creates a retriever seeded with the given documents.
func NewRetriever(docs ...retrieval.Document) *Retriever {
	r := &Retriever{}
	r.docs = append(r.docs, docs...)
	return r
}

// Add seeds additional documents.
func (r *Retriever) Add(docs ...retrieval.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, docs...)
}

// Retrieve scores every document by query term overlap and returns
// the best matches in descending score order.
func (r *Retriever) Retrieve(ctx context.Context, query *retrieval.Query) (*retrieval.Result, error) {
	terms := tokenize(query.Text)
	if len(terms) == 0 {
		return &retrieval.Result{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		doc   retrieval.Document
		score float64
	}
	matches := make([]scored, 0, len(r.docs))
	for _, doc := range r.docs {
		score := overlap(terms, tokenize(doc.Text))
		if score == 0 {
			continue
		}
		if query.MinScore > 0 && score < query.MinScore {
			continue
		}
		matches = append(matches, scored{doc: doc, score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if query.Limit > 0 && len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}

	result := &retrieval.Result{}
	for _, m := range matches {
		doc := m.doc
		doc.Score = m.score
		result.Documents = append(result.Documents, &doc)
	}
	return result, nil
}

// Close closes the retriever.
func (r *Retriever) Close() error {
	return nil
}

func tokenize(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		term := strings.Trim(field, ".,;:!?\"'()")
		if term != "" {
			terms[term] = struct{}{}
		}
	}
	return terms
}

// overlap is the fraction of query terms present in the document.
func overlap(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	matched := 0
	for term := range query {
		if _, ok := doc[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}
