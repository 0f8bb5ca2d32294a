// Package app provides the top-level application lifecycle management for
// the bazaar bot. It wires together all dependencies (stores, caches, blob
// storage, notifications), builds the marketplace engine, and runs the
// scheduler, WebSocket hub, and HTTP API until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/alanyoungcy/bazaarbot/internal/blob/s3"
	"github.com/alanyoungcy/bazaarbot/internal/catalog"
	"github.com/alanyoungcy/bazaarbot/internal/config"
	"github.com/alanyoungcy/bazaarbot/internal/domain"
	"github.com/alanyoungcy/bazaarbot/internal/engine"
	"github.com/alanyoungcy/bazaarbot/internal/mint"
	"github.com/alanyoungcy/bazaarbot/internal/server"
	"github.com/alanyoungcy/bazaarbot/internal/server/handler"
	"github.com/alanyoungcy/bazaarbot/internal/server/ws"
)

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions that are called in reverse order on
// shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the engine
// goroutines, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch strings.ToLower(a.cfg.Mode) {
	case "migrate":
		// Migrations already ran inside Wire when enabled; nothing left.
		a.logger.InfoContext(ctx, "migrations applied")
		return nil
	case "run":
		return a.runEngine(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// runEngine builds the marketplace engine and runs it alongside the
// WebSocket hub and HTTP API until the context is cancelled.
func (a *App) runEngine(ctx context.Context, deps *Dependencies) error {
	// Catalog.
	templates, err := deps.CatalogStore.All(ctx)
	if err != nil {
		return fmt.Errorf("app: load catalog: %w", err)
	}
	registry := catalog.NewRegistry(templates, a.logger)
	if registry.Len() == 0 {
		a.logger.WarnContext(ctx, "catalog is empty, seller cycles will list nothing")
	}

	// Segments. Persisted configs win; TOML seeds segments the store does
	// not know yet so first boot works from the config file alone.
	segments, err := a.loadSegments(ctx, deps)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return errors.New("app: no segments configured")
	}

	seed := a.cfg.Bot.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	sellerAgent := domain.Agent{ID: domain.AgentID(a.cfg.Bot.SellerAgent), Name: a.cfg.Bot.SellerAgent}
	buyerAgent := domain.Agent{ID: domain.AgentID(a.cfg.Bot.BuyerAgent), Name: a.cfg.Bot.BuyerAgent}
	bots := map[domain.AgentID]bool{
		sellerAgent.ID: true,
		buyerAgent.ID:  true,
	}

	pricer := engine.NewPricer(deps.PriceCache, rng, a.logger)
	minter := mint.New()
	seller := engine.NewSeller(deps.Listings, registry, minter, pricer, rng, a.logger)
	buyer := engine.NewBuyer(deps.Listings, registry, pricer, deps.Notifier, bots, rng, a.logger)

	var archiver engine.Archiver
	if deps.BlobWriter != nil {
		archiver = s3blob.NewCycleArchiver(deps.BlobWriter)
	}

	agents := func(string) (domain.Agent, domain.Agent) {
		return sellerAgent, buyerAgent
	}
	scheduler := engine.NewScheduler(segments, seller, buyer, agents, deps.SignalBus, archiver, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Run(gctx, a.cfg.Bot.CycleInterval.Duration)
	})

	if a.cfg.Server.Enabled {
		hub := ws.NewHub(deps.SignalBus, []string{engine.CyclesChannel, engine.TradesChannel}, a.logger)
		g.Go(func() error {
			return hub.Run(gctx)
		})

		byID := make(map[string]*domain.Segment, len(segments))
		for _, seg := range segments {
			byID[seg.ID()] = seg
		}
		sellerFor := func(string) domain.AgentID { return sellerAgent.ID }

		srv := server.NewServer(server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
		}, server.Handlers{
			Health:   handler.NewHealthHandler(a.logger),
			Segments: handler.NewSegmentHandler(byID, deps.SegmentStore, deps.Listings, sellerFor, a.logger),
			Listings: handler.NewListingHandler(deps.Listings, a.logger),
		}, hub, a.logger)

		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// loadSegments merges persisted segment configs with the TOML-declared
// ones and returns the live segments. TOML segments unknown to the store
// are persisted as the initial configuration.
func (a *App) loadSegments(ctx context.Context, deps *Dependencies) ([]*domain.Segment, error) {
	stored, err := deps.SegmentStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: load segments: %w", err)
	}
	byID := make(map[string]domain.SegmentConfig, len(stored))
	for _, cfg := range stored {
		byID[cfg.ID] = cfg
	}

	var segments []*domain.Segment
	for _, sc := range a.cfg.Segments {
		cfg, ok := byID[sc.ID]
		if !ok {
			cfg, err = sc.ToDomain()
			if err != nil {
				return nil, fmt.Errorf("app: segment %s: %w", sc.ID, err)
			}
			if err := deps.SegmentStore.Upsert(ctx, cfg); err != nil {
				return nil, fmt.Errorf("app: seed segment %s: %w", sc.ID, err)
			}
			a.logger.InfoContext(ctx, "segment seeded from config file",
				slog.String("segment", cfg.ID),
			)
		}
		delete(byID, sc.ID)
		segments = append(segments, domain.NewSegment(cfg))
	}

	// Segments that exist only in the store keep running too.
	for _, cfg := range byID {
		segments = append(segments, domain.NewSegment(cfg))
	}

	return segments, nil
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
