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

// Package elasticsearch provides a Retriever backed by an
// Elasticsearch policy index.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/storeops/sop-agent-go/retrieval"
)

var _ retrieval.Retriever = (*Retriever)(nil)

// Retriever queries one index and maps hits onto retrieval documents
// through the configured column names.
type Retriever struct {
	client  *elasticsearch.Client
	index   string
	columns Columns
}

// New creates a new Elasticsearch retriever.
func New(opts ...Option) (*Retriever, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.index == "" {
		return nil, fmt.Errorf("elasticsearch: index name is required")
	}

	cfg := elasticsearch.Config{
		Addresses: o.addresses,
		Username:  o.username,
		Password:  o.password,
		APIKey:    o.apiKey,
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	return &Retriever{
		client:  client,
		index:   o.index,
		columns: o.columns,
	}, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Score  float64        `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Retrieve runs a full-text match against the text column and returns
// the hits in backend order.
func (r *Retriever) Retrieve(ctx context.Context, query *retrieval.Query) (*retrieval.Result, error) {
	if strings.TrimSpace(query.Text) == "" {
		return &retrieval.Result{}, nil
	}

	body := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				r.columns.Text: map[string]any{"query": query.Text},
			},
		},
	}
	if query.Limit > 0 {
		body["size"] = query.Limit
	}
	if query.MinScore > 0 {
		body["min_score"] = query.MinScore
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: search failed: %s", res.Status())
	}
	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: read response: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("elasticsearch: parse response: %w", err)
	}

	result := &retrieval.Result{}
	for _, hit := range resp.Hits.Hits {
		doc := &retrieval.Document{
			ID:     hit.ID,
			Score:  hit.Score,
			Text:   sourceString(hit.Source, r.columns.Text),
			Source: sourceString(hit.Source, r.columns.Source),
		}
		if id := sourceString(hit.Source, r.columns.ID); id != "" {
			doc.ID = id
		}
		result.Documents = append(result.Documents, doc)
	}
	return result, nil
}

func sourceString(source map[string]any, column string) string {
	if column == "" {
		return ""
	}
	value, ok := source[column]
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Close closes the retriever.
func (r *Retriever) Close() error {
	return nil
}
