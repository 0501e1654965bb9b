package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studyquest/achievements"
	"studyquest/adapters/jsonfile"
	mem "studyquest/adapters/memory"
	redisAdapter "studyquest/adapters/redis"
	sqlxAdapter "studyquest/adapters/sqlx"
	"studyquest/analytics"
	"studyquest/api/httpapi"
	"studyquest/config"
	"studyquest/core"
	"studyquest/engine"
	"studyquest/gamify"
	"studyquest/integrations/webhook"
	"studyquest/leaderboard"
	"studyquest/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Hub         *realtime.Hub
	Leaderboard *leaderboard.Tracker
	Service     *engine.Service
	Metrics     *Metrics
	Handler     http.Handler
	Server      *http.Server
}

// Metrics holds the Prometheus registry and, when metrics are served on
// their own address, the server exposing it.
type Metrics struct {
	Registry *prometheus.Registry
	Hook     *analytics.PrometheusHook
	Handler  http.Handler
	Server   *http.Server
}

// eventHooks are the analytics sinks fed by the event bus.
type eventHooks []analytics.Hook

func provideConfig(ctx context.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case os.Getenv("STUDYQUEST_CONFIG") != "":
		cfg, err = config.LoadFromFile(os.Getenv("STUDYQUEST_CONFIG"))
	case os.Getenv("STUDYQUEST_PROFILE") != "":
		cfg, err = config.LoadProfileWithEnv(os.Getenv("STUDYQUEST_PROFILE"))
	default:
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideLeaderboard() *leaderboard.Tracker {
	return leaderboard.NewTracker(leaderboard.NewSkipList())
}

func provideCatalog(cfg *config.Config, logger *slog.Logger) *achievements.Catalog {
	return achievements.LoadCatalogOrDefault(cfg.Catalog.Path, logger)
}

func provideLocation(cfg *config.Config) (*time.Location, error) {
	loc, err := cfg.Scoring.Location()
	if err != nil {
		return nil, fmt.Errorf("scoring timezone: %w", err)
	}
	return loc, nil
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.Storage, func(), error) {
	return setupStorage(ctx, cfg)
}

func provideMetrics(cfg *config.Config) *Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	if cfg.Metrics.CollectSystem {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := &Metrics{
		Registry: reg,
		Hook:     analytics.NewPrometheusHook(reg),
		Handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	if cfg.Metrics.Address != "" && cfg.Metrics.Address != cfg.Server.Address {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler)
		m.Server = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		}
	}
	return m
}

func provideHooks(cfg *config.Config, metrics *Metrics, board *leaderboard.Tracker, logger *slog.Logger) eventHooks {
	hooks := eventHooks{board}
	if metrics != nil {
		hooks = append(hooks, metrics.Hook)
	}
	if len(cfg.Webhooks.Endpoints) > 0 {
		types := make([]core.EventType, 0, len(cfg.Webhooks.EventTypes))
		for _, t := range cfg.Webhooks.EventTypes {
			types = append(types, core.EventType(t))
		}
		hooks = append(hooks, webhook.New(cfg.Webhooks.Endpoints,
			webhook.WithClient(&http.Client{Timeout: cfg.Webhooks.Timeout}),
			webhook.WithEventTypes(types...),
			webhook.WithSecret(cfg.Webhooks.Secret),
			webhook.WithLogger(logger.With("component", "webhook")),
		))
	}
	return hooks
}

func provideService(
	cfg *config.Config,
	logger *slog.Logger,
	hub *realtime.Hub,
	storage engine.Storage,
	catalog *achievements.Catalog,
	loc *time.Location,
	hooks eventHooks,
) (*engine.Service, func()) {
	mode := engine.DispatchAsync
	if cfg.Scoring.Dispatch == "sync" {
		mode = engine.DispatchSync
	}
	svc := gamify.New(
		gamify.WithRealtime(hub),
		gamify.WithStorage(storage),
		gamify.WithCatalog(catalog),
		gamify.WithLocation(loc),
		gamify.WithLogger(logger),
		gamify.WithDispatchMode(mode),
		gamify.WithHooks(hooks...),
	)
	return svc, svc.Close
}

func provideHandler(svc *engine.Service, hub *realtime.Hub, board *leaderboard.Tracker, cfg *config.Config, logger *slog.Logger, metrics *Metrics) http.Handler {
	opts := httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
		Leaderboard:      board.Board(),
		Logger:           logger,
	}
	if metrics != nil && metrics.Server == nil {
		opts.MetricsHandler = metrics.Handler
		opts.MetricsPath = cfg.Metrics.Path
	}
	return httpapi.NewMux(svc, hub, opts)
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var out io.Writer = os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the storage adapter named by configuration. The
// returned cleanup releases its connections.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.Storage, func(), error) {
	noop := func() {}
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), noop, nil
	case "file":
		store, err := jsonfile.New(cfg.Storage.File.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("file storage: %w", err)
		}
		return store, noop, nil
	case "redis":
		store, err := redisAdapter.New(cfg.Storage.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("redis storage: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "sql":
		store, err := sqlxAdapter.New(ctx, cfg.Storage.SQL)
		if err != nil {
			return nil, nil, fmt.Errorf("sql storage: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
