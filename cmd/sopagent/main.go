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

// Command sopagent runs the SOP assistant: the A2A agent server plus
// the admin HTTP server, wired to the configured checkpoint store,
// tenant registry and retrieval/generation backends.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/storeops/sop-agent-go/checkpoint"
	badgerstore "github.com/storeops/sop-agent-go/checkpoint/badger"
	inmemorystore "github.com/storeops/sop-agent-go/checkpoint/inmemory"
	redisstore "github.com/storeops/sop-agent-go/checkpoint/redis"
	"github.com/storeops/sop-agent-go/config"
	"github.com/storeops/sop-agent-go/log"
	"github.com/storeops/sop-agent-go/orchestrator"
	a2aserver "github.com/storeops/sop-agent-go/server/a2a"
	"github.com/storeops/sop-agent-go/server/admin"
	"github.com/storeops/sop-agent-go/telemetry/langfuse"
	ametric "github.com/storeops/sop-agent-go/telemetry/metric"
	atrace "github.com/storeops/sop-agent-go/telemetry/trace"
	"github.com/storeops/sop-agent-go/tenant"
)

var configPath = flag.String("config", "", "path to the service configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	log.SetLevel(cfg.Log.Level)
	log.Infof("starting %s %s: %s", cfg.Agent.Name, cfg.Agent.Version, cfg)

	ctx := context.Background()
	cleanTelemetry := startTelemetry(ctx, cfg)
	defer cleanTelemetry()

	store := openStore(cfg)

	configs, err := loadTenantConfigs(cfg.Tenants.Path)
	if err != nil {
		log.Fatalf("load tenant configuration from %s: %v", cfg.Tenants.Path, err)
	}
	registry, err := tenant.NewRegistry(configs)
	if err != nil {
		log.Fatalf("build tenant registry: %v", err)
	}
	log.Infof("loaded %d tenants from %s", len(registry.TenantIDs()), cfg.Tenants.Path)

	reloadTenants := func() error {
		configs, err := loadTenantConfigs(cfg.Tenants.Path)
		if err != nil {
			return err
		}
		return registry.Reload(configs)
	}

	var watcher *tenant.Watcher
	if cfg.Tenants.Watch {
		watcher, err = tenant.NewWatcher(cfg.Tenants.Path, reloadTenants)
		if err != nil {
			log.Warnf("tenant config watcher unavailable: %v", err)
			watcher = nil
		} else if err := watcher.Start(ctx); err != nil {
			log.Warnf("tenant config watcher failed to start: %v", err)
			watcher = nil
		}
	}

	binder := orchestrator.NewBackendBinder(binderOptions(cfg)...)

	orch, err := orchestrator.New(registry, store, binder)
	if err != nil {
		log.Fatalf("build orchestrator: %v", err)
	}

	agentServer, err := a2aserver.New(
		a2aserver.WithHandler(orch),
		a2aserver.WithHost(cfg.Addr()),
		a2aserver.WithURL(cfg.AgentURL()),
		a2aserver.WithName(cfg.Agent.Name),
		a2aserver.WithDescription(cfg.Agent.Description),
		a2aserver.WithVersion(cfg.Agent.Version),
	)
	if err != nil {
		log.Fatalf("create agent server: %v", err)
	}

	adminServer := &http.Server{
		Addr: cfg.AdminAddr(),
		Handler: admin.New(registry, store, admin.WithReload(func(context.Context) error {
			return reloadTenants()
		})).Handler(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infof("agent server listening on %s", cfg.Addr())
		if err := agentServer.Start(cfg.Addr()); err != nil {
			log.Fatalf("agent server failed: %v", err)
		}
	}()
	go func() {
		log.Infof("admin server listening on %s", cfg.AdminAddr())
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("admin server failed: %v", err)
		}
	}()

	sig := <-sigChan
	log.Infof("received signal %v, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := agentServer.Stop(shutdownCtx); err != nil {
		log.Errorf("stop agent server: %v", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("stop admin server: %v", err)
	}
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			log.Errorf("stop tenant config watcher: %v", err)
		}
	}
	if err := binder.Close(); err != nil {
		log.Errorf("close retrieval backends: %v", err)
	}
	if err := store.Close(); err != nil {
		log.Errorf("close checkpoint store: %v", err)
	}
}

// startTelemetry starts every configured telemetry exporter and
// returns one cleanup for all of them.
func startTelemetry(ctx context.Context, cfg *config.Config) func() {
	var cleanups []func()
	if cfg.Telemetry.TraceEndpoint != "" {
		clean, err := atrace.Start(ctx, atrace.WithEndpoint(cfg.Telemetry.TraceEndpoint))
		if err != nil {
			log.Fatalf("start trace telemetry: %v", err)
		}
		cleanups = append(cleanups, func() {
			if err := clean(); err != nil {
				log.Errorf("clean up trace telemetry: %v", err)
			}
		})
	}
	if cfg.Telemetry.MetricEndpoint != "" {
		clean, err := ametric.Start(ctx, ametric.WithEndpoint(cfg.Telemetry.MetricEndpoint))
		if err != nil {
			log.Fatalf("start metric telemetry: %v", err)
		}
		cleanups = append(cleanups, func() {
			if err := clean(); err != nil {
				log.Errorf("clean up metric telemetry: %v", err)
			}
		})
	}
	if langfuse.Configured() {
		clean, err := langfuse.Start(ctx)
		if err != nil {
			log.Fatalf("start langfuse telemetry: %v", err)
		}
		cleanups = append(cleanups, func() {
			if err := clean(context.Background()); err != nil {
				log.Errorf("clean up langfuse telemetry: %v", err)
			}
		})
	}
	return func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
}

// openStore opens the configured checkpoint backend. When durable
// storage cannot be opened the process continues on the volatile
// in-memory store so requests still succeed, at the cost of history
// not surviving a restart.
func openStore(cfg *config.Config) checkpoint.Store {
	switch cfg.Checkpoint.Backend {
	case config.BackendBadger:
		store, err := badgerstore.Open(cfg.Checkpoint.Path)
		if err == nil {
			log.Infof("checkpoint store: badger at %s", cfg.Checkpoint.Path)
			return store
		}
		log.Warnf("durable checkpoint storage unavailable, conversation history will not survive restarts: %v", err)
	case config.BackendRedis:
		store, err := redisstore.NewStore(redisstore.WithURL(cfg.Checkpoint.RedisURL))
		if err == nil {
			log.Infof("checkpoint store: redis")
			return store
		}
		log.Warnf("durable checkpoint storage unavailable, conversation history will not survive restarts: %v", err)
	case config.BackendInMemory:
		log.Infof("checkpoint store: inmemory")
	}
	return inmemorystore.NewStore()
}

// loadTenantConfigs reads tenant configuration from a file, or from
// every matching file when path is a glob pattern.
func loadTenantConfigs(path string) (map[string]*tenant.Config, error) {
	if strings.ContainsAny(path, "*?[") {
		return tenant.LoadGlob(path)
	}
	return tenant.LoadFile(path)
}

// binderOptions translates process configuration into backend binder
// options. Per-tenant settings stay in the tenant registry; only
// cluster addresses and credentials live here.
func binderOptions(cfg *config.Config) []orchestrator.BackendOption {
	opts := []orchestrator.BackendOption{
		orchestrator.WithElasticsearchAddresses(cfg.Retrieval.Addresses),
	}
	if cfg.Models.OpenAIAPIKey != "" {
		opts = append(opts, orchestrator.WithOpenAIAPIKey(cfg.Models.OpenAIAPIKey))
	}
	if cfg.Models.OpenAIBaseURL != "" {
		opts = append(opts, orchestrator.WithOpenAIBaseURL(cfg.Models.OpenAIBaseURL))
	}
	if cfg.Models.GeminiAPIKey != "" {
		opts = append(opts, orchestrator.WithGeminiAPIKey(cfg.Models.GeminiAPIKey))
	}
	if cfg.Retrieval.Username != "" || cfg.Retrieval.Password != "" {
		opts = append(opts, orchestrator.WithElasticsearchBasicAuth(cfg.Retrieval.Username, cfg.Retrieval.Password))
	}
	if cfg.Retrieval.APIKey != "" {
		opts = append(opts, orchestrator.WithElasticsearchAPIKey(cfg.Retrieval.APIKey))
	}
	if cfg.Retrieval.Static {
		opts = append(opts, orchestrator.WithStaticRetrieval())
	}
	return opts
}
