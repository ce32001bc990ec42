package app

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"botdeck/internal/bots"
	"botdeck/internal/config"
	"botdeck/internal/dashboard"
	"botdeck/internal/logger"
	"botdeck/internal/scheduler"
	dashhttp "botdeck/internal/transport/http"
)

// App ties the registry, dashboard service, per-bot refresh schedulers, and
// HTTP server together.
type App struct {
	cfg      *config.Config
	registry *bots.Registry
	service  *dashboard.Service
	server   *dashhttp.Server

	mu         sync.Mutex
	runCtx     context.Context
	stopScheds context.CancelFunc
}

func NewApp(cfg *config.Config) (*App, error) {
	if _, ok := scheduler.ParseIntervalDuration(cfg.App.RefreshInterval); !ok {
		return nil, fmt.Errorf("invalid refresh interval %q", cfg.App.RefreshInterval)
	}
	registry, err := bots.NewRegistry(cfg.BotsFile)
	if err != nil {
		return nil, err
	}
	service := dashboard.NewService()
	fetchers, live, err := buildFetchers(registry.Snapshot(), cfg.Upstream)
	if err != nil {
		return nil, err
	}
	service.SetFetchers(fetchers, live)

	server, err := dashhttp.NewServer(dashhttp.ServerConfig{
		Addr:    cfg.App.Listen,
		Service: service,
	})
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, registry: registry, service: service, server: server}
	registry.OnChange(func(snap bots.Snapshot) {
		if applyRegistrySnapshot(service, snap, cfg.Upstream) {
			a.restartSchedulers(snap)
		}
	})
	return a, nil
}

// Run blocks until a signal arrives or a component fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	a.mu.Lock()
	a.runCtx = gctx
	a.mu.Unlock()

	g.Go(func() error {
		return a.server.Start(gctx)
	})
	a.restartSchedulers(a.registry.Snapshot())

	logger.Infof("app: running, %d bots, listen=%s default_refresh=%s",
		len(a.registry.Snapshot().Profiles), a.server.Addr(), a.cfg.App.RefreshInterval)
	return g.Wait()
}

// restartSchedulers replaces the per-bot refresh schedulers after startup or
// a registry reload. Each bot runs on its own cadence from its profile,
// falling back to the app-wide default.
func (a *App) restartSchedulers(snap bots.Snapshot) {
	a.mu.Lock()
	parent := a.runCtx
	if parent == nil {
		// Run not started yet; Run will call again with the live context.
		a.mu.Unlock()
		return
	}
	if a.stopScheds != nil {
		a.stopScheds()
	}
	ctx, cancel := context.WithCancel(parent)
	a.stopScheds = cancel
	a.mu.Unlock()

	fallback, _ := scheduler.ParseIntervalDuration(a.cfg.App.RefreshInterval)
	for name, profile := range snap.Profiles {
		s := scheduler.NewIntervalScheduler("refresh-"+name, resolveInterval(profile, fallback))
		s.RunImmediately = true
		a.service.SetCountdown(name, s.Until)
		bot := name
		go s.Start(ctx, func(taskCtx context.Context) {
			if err := a.service.Refresh(taskCtx, bot); err != nil {
				logger.Warnf("app: scheduled refresh of %s failed: %v", bot, err)
			}
		})
	}
}
