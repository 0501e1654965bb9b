// Package gamify assembles a ready-to-use scoring service.
package gamify

import (
	"context"
	"log/slog"
	"time"

	mem "studyquest/adapters/memory"
	"studyquest/achievements"
	"studyquest/analytics"
	"studyquest/core"
	"studyquest/engine"
	"studyquest/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	storage engine.Storage
	mode    engine.DispatchMode
	catalog *achievements.Catalog
	logger  *slog.Logger
	loc     *time.Location
	hub     *realtime.Hub
	hooks   []analytics.Hook
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithCatalog sets the achievement catalog.
func WithCatalog(cat *achievements.Catalog) Option { return func(c *config) { c.catalog = cat } }

// WithLogger sets the logger for the service and event bus.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithLocation sets the time zone that decides calendar days.
func WithLocation(loc *time.Location) Option { return func(c *config) { c.loc = loc } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithHooks forwards every engine event to the given analytics hooks.
func WithHooks(h ...analytics.Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, h...) }
}

// New builds a configured Service. If not provided, defaults are used:
//   - storage: in-memory
//   - catalog: achievements.DefaultCatalog
//   - dispatch: async
//   - location: UTC
func New(opts ...Option) *engine.Service {
	cfg := &config{mode: engine.DispatchAsync, logger: slog.Default()}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = mem.New()
	}
	bus := engine.NewEventBus(cfg.mode)
	if cfg.logger != nil {
		bus.SetLogger(cfg.logger)
	}
	svc := engine.NewService(cfg.storage, bus,
		engine.WithCatalog(cfg.catalog),
		engine.WithLogger(cfg.logger),
		engine.WithLocation(cfg.loc),
	)
	if cfg.hub != nil {
		bus.SubscribeAll(func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
	}
	if len(cfg.hooks) > 0 {
		bridge := analytics.NewBridge(cfg.hooks...)
		bus.SubscribeAll(func(_ context.Context, e core.Event) { bridge.OnEvent(e) })
	}
	return svc
}
