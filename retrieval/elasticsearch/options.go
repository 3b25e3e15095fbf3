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

package elasticsearch

// Columns names the index columns backing each document field.
type Columns struct {
	ID     string
	Text   string
	Source string
}

type options struct {
	addresses []string
	username  string
	password  string
	apiKey    string
	index     string
	columns   Columns
}

func defaultOptions() options {
	return options{
		addresses: []string{"http://localhost:9200"},
		columns: Columns{
			ID:     "id",
			Text:   "chunk_text",
			Source: "source_path",
		},
	}
}

// Option configures the retriever.
type Option func(*options)

// WithAddresses sets the cluster addresses.
func WithAddresses(addresses []string) Option {
	return func(o *options) {
		if len(addresses) > 0 {
			o.addresses = addresses
		}
	}
}

// WithUsername sets the basic auth username.
func WithUsername(username string) Option {
	return func(o *options) {
		o.username = username
	}
}

// WithPassword sets the basic auth password.
func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

// WithAPIKey sets the API key, preferred over basic auth when set.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithIndex sets the index queried for policy chunks.
func WithIndex(index string) Option {
	return func(o *options) {
		o.index = index
	}
}

// WithColumns overrides the column names read from each hit. Empty
// fields keep their defaults.
func WithColumns(columns Columns) Option {
	return func(o *options) {
		if columns.ID != "" {
			o.columns.ID = columns.ID
		}
		if columns.Text != "" {
			o.columns.Text = columns.Text
		}
		if columns.Source != "" {
			o.columns.Source = columns.Source
		}
	}
}
