package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tripforge/tripforge/internal/adapter/outbound/amadeus"
	"github.com/tripforge/tripforge/internal/adapter/outbound/auditfile"
	rulecel "github.com/tripforge/tripforge/internal/adapter/outbound/cel"
	"github.com/tripforge/tripforge/internal/adapter/outbound/duffel"
	"github.com/tripforge/tripforge/internal/adapter/outbound/memory"
	"github.com/tripforge/tripforge/internal/adapter/outbound/rediscache"
	"github.com/tripforge/tripforge/internal/adapter/outbound/sqlite"
	"github.com/tripforge/tripforge/internal/config"
	"github.com/tripforge/tripforge/internal/domain/audit"
	"github.com/tripforge/tripforge/internal/domain/compliance"
	"github.com/tripforge/tripforge/internal/domain/policy"
	"github.com/tripforge/tripforge/internal/domain/provider"
	"github.com/tripforge/tripforge/internal/observability"
	"github.com/tripforge/tripforge/internal/service"
)

// App is the wired application: adapters, stores, and services built from
// configuration. Commands construct one, use it, and Close it.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Orchestrator *service.OrchestratorService
	Policies     *service.PolicyService
	Compliance   *service.ComplianceService
	Audit        *service.AuditService
	AuditQuery   audit.QueryStore

	auditCancel context.CancelFunc
	traceFlush  func(context.Context) error
	auditStore  audit.Store
	sqliteStore *sqlite.Store
}

// newApp loads configuration and wires every component. Providers with
// missing credentials are registered as unavailable, never an error.
func newApp(cmd *cobra.Command) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := buildLogger(cfg.LogLevel)
	if used := config.ConfigFileUsed(); used != "" {
		logger.Debug("config file loaded", "path", used)
	}

	timeout, err := time.ParseDuration(cfg.Providers.Timeout)
	if err != nil {
		return nil, fmt.Errorf("parsing providers.timeout: %w", err)
	}

	app := &App{Config: cfg, Logger: logger}

	if cfg.Tracing {
		flush, err := observability.SetupTracing(os.Stderr)
		if err != nil {
			return nil, err
		}
		app.traceFlush = flush
	}

	var metrics *observability.Metrics
	if cfg.Metrics {
		metrics = observability.NewMetrics(prometheus.DefaultRegisterer)
	}

	registry, err := buildRegistry(cfg, timeout, logger)
	if err != nil {
		return nil, err
	}

	cache, err := buildSearchCache(cfg, logger)
	if err != nil {
		return nil, err
	}

	policyStore, directory, roles, ledger, err := app.buildStores()
	if err != nil {
		return nil, err
	}

	auditStore, err := app.buildAuditStore()
	if err != nil {
		return nil, err
	}
	app.auditStore = auditStore
	if qs, ok := auditStore.(audit.QueryStore); ok {
		app.AuditQuery = qs
	}

	flushIvl, err := time.ParseDuration(cfg.Audit.FlushInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing audit.flush_interval: %w", err)
	}
	sendTimeout, err := time.ParseDuration(cfg.Audit.SendTimeout)
	if err != nil {
		return nil, fmt.Errorf("parsing audit.send_timeout: %w", err)
	}

	auditOpts := []service.AuditOption{
		service.WithChannelSize(cfg.Audit.ChannelSize),
		service.WithBatchSize(cfg.Audit.BatchSize),
		service.WithFlushInterval(flushIvl),
		service.WithSendTimeout(sendTimeout),
	}
	if metrics != nil {
		auditOpts = append(auditOpts, service.WithAuditMetrics(metrics))
	}
	app.Audit = service.NewAuditService(auditStore, logger, auditOpts...)
	auditCtx, cancel := context.WithCancel(context.Background())
	app.auditCancel = cancel
	app.Audit.Start(auditCtx)

	evaluator, err := rulecel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("creating rule evaluator: %w", err)
	}

	app.Policies = service.NewPolicyService(policyStore, directory, logger)
	complianceOpts := []service.ComplianceOption{}
	if metrics != nil {
		complianceOpts = append(complianceOpts, service.WithComplianceMetrics(metrics))
	}
	app.Compliance = service.NewComplianceService(
		app.Policies, directory, ledger, app.Audit, evaluator, logger, complianceOpts...)

	orchOpts := []service.OrchestratorOption{
		service.WithFallback(cfg.Fallback.Enabled),
		service.WithUpstreamTimeout(timeout),
	}
	if cache != nil {
		orchOpts = append(orchOpts, service.WithSearchCache(cache))
	}
	if metrics != nil {
		orchOpts = append(orchOpts, service.WithMetrics(metrics))
	}
	app.Orchestrator = service.NewOrchestratorService(registry, logger, orchOpts...)

	if cfg.PolicySeedFile != "" {
		seed, err := service.LoadPolicySeed(cfg.PolicySeedFile, evaluator)
		if err != nil {
			return nil, err
		}
		if err := service.ApplySeed(cmd.Context(), seed, policyStore, roles, logger); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Close flushes the audit trail and releases storage.
func (a *App) Close() {
	if a.Audit != nil {
		a.Audit.Stop()
	}
	if a.auditCancel != nil {
		a.auditCancel()
	}
	if a.auditStore != nil {
		if err := a.auditStore.Close(); err != nil {
			a.Logger.Warn("closing audit store", "error", err)
		}
	}
	if a.sqliteStore != nil {
		if err := a.sqliteStore.Close(); err != nil {
			a.Logger.Warn("closing sqlite store", "error", err)
		}
	}
	if a.traceFlush != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.traceFlush(ctx); err != nil {
			a.Logger.Warn("flushing traces", "error", err)
		}
	}
}

func buildLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// buildRegistry registers each configured provider, marking those without
// credentials unavailable so fallback selection skips them with a reason.
func buildRegistry(cfg *config.Config, timeout time.Duration, logger *slog.Logger) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	if cfg.Providers.Duffel.Enabled {
		if cfg.DuffelAvailable() {
			opts := []duffel.ClientOption{duffel.WithTimeout(timeout)}
			if cfg.Providers.Duffel.BaseURL != "" {
				opts = append(opts, duffel.WithBaseURL(cfg.Providers.Duffel.BaseURL))
			}
			client := duffel.NewClient(cfg.Providers.Duffel.Token, logger, opts...)
			registry.Register(duffel.NewAdapter(client, logger))
		} else {
			registry.MarkUnavailable(duffel.ProviderName, "no API token configured")
		}
	}

	if cfg.Providers.Amadeus.Enabled {
		if cfg.AmadeusAvailable() {
			opts := []amadeus.ClientOption{amadeus.WithTimeout(timeout)}
			if cfg.Providers.Amadeus.BaseURL != "" {
				opts = append(opts, amadeus.WithBaseURL(cfg.Providers.Amadeus.BaseURL))
			}
			client := amadeus.NewClient(
				cfg.Providers.Amadeus.ClientID, cfg.Providers.Amadeus.ClientSecret, logger, opts...)

			quoteTTL, err := time.ParseDuration(cfg.Providers.Amadeus.QuoteTTL)
			if err != nil {
				return nil, fmt.Errorf("parsing providers.amadeus.quote_ttl: %w", err)
			}
			registry.Register(amadeus.NewAdapter(client, logger, amadeus.WithQuoteTTL(quoteTTL)))
		} else {
			registry.MarkUnavailable(amadeus.ProviderName, "client credentials not configured")
		}
	}

	return registry, nil
}

func buildSearchCache(cfg *config.Config, logger *slog.Logger) (provider.SearchCache, error) {
	ttl, err := time.ParseDuration(cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("parsing cache.ttl: %w", err)
	}

	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		return rediscache.New(client, ttl, logger), nil
	default:
		return memory.NewSearchCache(
			memory.WithSearchCacheTTL(ttl),
			memory.WithSearchCacheSize(cfg.Cache.Size),
		), nil
	}
}

// buildStores returns the policy store, directory, role writer, and spend
// ledger for the configured backend. With sqlite one store serves all
// four roles.
func (a *App) buildStores() (policy.Store, policy.Directory, service.RoleWriter, compliance.SpendLedger, error) {
	if a.Config.Store.Backend == "sqlite" {
		store, err := sqlite.Open(a.Config.Store.Path, a.Logger)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		a.sqliteStore = store
		return store, store, store, store, nil
	}
	directory := memory.NewDirectory()
	return memory.NewPolicyStore(), directory, directory, memory.NewSpendLedger(), nil
}

func (a *App) buildAuditStore() (audit.Store, error) {
	switch a.Config.Audit.Backend {
	case "file":
		return auditfile.New(auditfile.Config{
			Dir:           a.Config.Audit.Dir,
			RetentionDays: a.Config.Audit.RetentionDays,
			MaxFileSizeMB: a.Config.Audit.MaxFileSizeMB,
			CacheSize:     a.Config.Audit.CacheSize,
		}, a.Logger)
	case "sqlite":
		// Validated: the sqlite audit backend rides on the sqlite store.
		return a.sqliteStore, nil
	default:
		return memory.NewAuditStore(), nil
	}
}
