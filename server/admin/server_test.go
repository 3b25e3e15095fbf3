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

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/sop-agent-go/checkpoint"
	"github.com/storeops/sop-agent-go/checkpoint/inmemory"
	"github.com/storeops/sop-agent-go/tenant"
)

func testRegistry(t *testing.T, tenantIDs ...string) *tenant.Registry {
	t.Helper()
	configs := make(map[string]*tenant.Config, len(tenantIDs))
	for _, id := range tenantIDs {
		configs[id] = &tenant.Config{
			Models: tenant.ModelSettings{
				RewriteModel: "gpt-rewrite",
				AnswerModel:  "gpt-answer",
			},
		}
	}
	registry, err := tenant.NewRegistry(configs)
	require.NoError(t, err)
	return registry
}

func serveJSON(t *testing.T, s *Server, method, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestServer_handleHealth(t *testing.T) {
	server := New(testRegistry(t, "default"), inmemory.NewStore())

	for _, target := range []string{"/", "/healthz"} {
		var status statusResponse
		w := serveJSON(t, server, http.MethodGet, target, &status)

		assert.Equal(t, http.StatusOK, w.Code, "expected status 200 for %s, got %d", target, w.Code)
		assert.Equal(t, "ok", status.Status)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}

func TestServer_handleListTenants(t *testing.T) {
	server := New(testRegistry(t, "default", "acme"), inmemory.NewStore())

	var resp tenantsResponse
	w := serveJSON(t, server, http.MethodGet, "/api/v1/tenants", &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"acme", "default"}, resp.Tenants, "tenant ids are sorted")
}

func TestServer_handleReloadTenants(t *testing.T) {
	registry := testRegistry(t, "default")
	reloaded := false
	server := New(registry, inmemory.NewStore(), WithReload(func(ctx context.Context) error {
		reloaded = true
		return registry.Reload(map[string]*tenant.Config{
			"default": {Models: tenant.ModelSettings{RewriteModel: "m", AnswerModel: "m"}},
			"acme":    {Models: tenant.ModelSettings{RewriteModel: "m", AnswerModel: "m"}},
		})
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/reload", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reloaded, "reload function was not invoked")

	var resp tenantsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"acme", "default"}, resp.Tenants, "response carries the post-reload tenant list")
}

func TestServer_handleReloadTenantsFailure(t *testing.T) {
	server := New(testRegistry(t, "default"), inmemory.NewStore(), WithReload(func(ctx context.Context) error {
		return errors.New("config file is unreadable")
	}))

	w := serveJSON(t, server, http.MethodPost, "/api/v1/tenants/reload", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "config file is unreadable")
}

func TestServer_handleReloadTenantsNotConfigured(t *testing.T) {
	server := New(testRegistry(t, "default"), inmemory.NewStore())

	w := serveJSON(t, server, http.MethodPost, "/api/v1/tenants/reload", nil)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestServer_handleGetConversation(t *testing.T) {
	store := inmemory.NewStore()
	key := checkpoint.Key{TenantID: "acme", ThreadID: "thread-7"}
	require.NoError(t, store.Append(context.Background(), key, []checkpoint.Turn{
		checkpoint.NewUserTurn("What is the return policy?"),
		checkpoint.NewAssistantTurn("Returns are accepted within 30 days."),
	}))
	server := New(testRegistry(t, "default"), store)

	var resp conversationResponse
	w := serveJSON(t, server, http.MethodGet, "/api/v1/conversations/acme/thread-7", &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", resp.TenantID)
	assert.Equal(t, "thread-7", resp.ThreadID)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, checkpoint.RoleUser, resp.Turns[0].Role)
	assert.Equal(t, "What is the return policy?", resp.Turns[0].Content)
	assert.Equal(t, checkpoint.RoleAssistant, resp.Turns[1].Role)
}

func TestServer_handleGetConversationLimit(t *testing.T) {
	store := inmemory.NewStore()
	key := checkpoint.Key{TenantID: "acme", ThreadID: "thread-7"}
	require.NoError(t, store.Append(context.Background(), key, []checkpoint.Turn{
		checkpoint.NewUserTurn("first question"),
		checkpoint.NewAssistantTurn("first answer"),
		checkpoint.NewUserTurn("second question"),
		checkpoint.NewAssistantTurn("second answer"),
	}))
	server := New(testRegistry(t, "default"), store)

	var resp conversationResponse
	w := serveJSON(t, server, http.MethodGet, "/api/v1/conversations/acme/thread-7?limit=2", &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, "second question", resp.Turns[0].Content)
	assert.Equal(t, "second answer", resp.Turns[1].Content)
}

func TestServer_handleGetConversationBadLimit(t *testing.T) {
	server := New(testRegistry(t, "default"), inmemory.NewStore())

	for _, limit := range []string{"abc", "-1", "1.5"} {
		w := serveJSON(t, server, http.MethodGet, "/api/v1/conversations/acme/thread-7?limit="+limit, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit %q should be rejected", limit)
	}
}

func TestServer_handleGetConversationEmpty(t *testing.T) {
	server := New(testRegistry(t, "default"), inmemory.NewStore())

	var resp conversationResponse
	w := serveJSON(t, server, http.MethodGet, "/api/v1/conversations/acme/never-used", &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, resp.Turns)
	assert.Empty(t, resp.Turns)
	assert.Contains(t, w.Body.String(), `"turns":[]`, "empty conversations render an empty array, not null")
}

func TestServer_rejectsWrongMethod(t *testing.T) {
	server := New(testRegistry(t, "default"), inmemory.NewStore())

	w := serveJSON(t, server, http.MethodGet, "/api/v1/tenants/reload", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
