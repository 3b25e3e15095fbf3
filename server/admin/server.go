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

// Package admin provides the operational HTTP surface: health probes,
// tenant inventory and reload, and conversation inspection.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/storeops/sop-agent-go/checkpoint"
	"github.com/storeops/sop-agent-go/log"
	"github.com/storeops/sop-agent-go/tenant"
)

// ReloadFunc re-reads the tenant configuration source and swaps it into
// the registry. It is invoked by POST /api/v1/tenants/reload.
type ReloadFunc func(ctx context.Context) error

// Server serves the admin endpoints over a gorilla/mux router.
type Server struct {
	registry *tenant.Registry
	store    checkpoint.Store
	reload   ReloadFunc
	router   *mux.Router
}

// Option configures the Server instance.
type Option func(*Server)

// WithReload installs the function behind the tenant reload endpoint.
// If omitted, reload requests are answered with 501 Not Implemented.
func WithReload(fn ReloadFunc) Option {
	return func(s *Server) { s.reload = fn }
}

// New creates the admin HTTP server for the given registry and
// conversation store. The behaviour can be tweaked via functional
// options.
func New(registry *tenant.Registry, store checkpoint.Store, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		store:    store,
		router:   mux.NewRouter(),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Add CORS middleware so browser-based dashboards can call us.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

// registerRoutes sets up all REST endpoints.
func (s *Server) registerRoutes() {
	s.router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/tenants", s.handleListTenants).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/tenants/reload", s.handleReloadTenants).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/conversations/{tenantID}/{threadID}", s.handleGetConversation).Methods(http.MethodGet)
}

type statusResponse struct {
	Status string `json:"status"`
}

type tenantsResponse struct {
	Tenants []string `json:"tenants"`
}

type conversationResponse struct {
	TenantID string            `json:"tenant_id"`
	ThreadID string            `json:"thread_id"`
	Turns    []checkpoint.Turn `json:"turns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, statusResponse{Status: "ok"})
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleListTenants called: path=%s", r.URL.Path)
	s.writeJSON(w, tenantsResponse{Tenants: s.registry.TenantIDs()})
}

func (s *Server) handleReloadTenants(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleReloadTenants called: path=%s", r.URL.Path)
	if s.reload == nil {
		http.Error(w, "tenant reload is not configured", http.StatusNotImplemented)
		return
	}
	if err := s.reload(r.Context()); err != nil {
		log.Errorf("tenant reload failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ids := s.registry.TenantIDs()
	log.Infof("tenant configuration reloaded, %d tenants", len(ids))
	s.writeJSON(w, tenantsResponse{Tenants: ids})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleGetConversation called: path=%s", r.URL.Path)
	vars := mux.Vars(r)
	key := checkpoint.Key{TenantID: vars["tenantID"], ThreadID: vars["threadID"]}
	if err := key.Check(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var opts []checkpoint.Option
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		if limit > 0 {
			opts = append(opts, checkpoint.WithRecentTurns(limit))
		}
	}

	turns, err := s.store.Load(r.Context(), key, opts...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if turns == nil {
		turns = []checkpoint.Turn{}
	}
	s.writeJSON(w, conversationResponse{
		TenantID: key.TenantID,
		ThreadID: key.ThreadID,
		Turns:    turns,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
