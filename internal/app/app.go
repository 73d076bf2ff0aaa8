// Package app wires configuration, stores, the signal engine and the
// outward surfaces (HTTP, scheduler, notifier) into one runnable unit.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tradewind/internal/augment"
	"tradewind/internal/config"
	"tradewind/internal/engine"
	"tradewind/internal/logger"
	"tradewind/internal/market"
	"tradewind/internal/notifier"
	"tradewind/internal/scheduler"
	"tradewind/internal/store/auditlog"
	"tradewind/internal/store/sqlite"
	httpapi "tradewind/internal/transport/http"
)

type App struct {
	cfg    *config.Config
	store  *sqlite.Store
	audit  *auditlog.Store
	server *httpapi.Server
	runner *scheduler.Runner
}

// NewApp builds the application from config without starting anything.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}
	eng := engine.New(catalog, buildAugment(cfg),
		engine.WithConfidenceBand(cfg.Ensemble.ConfidenceFloor, cfg.Ensemble.ConfidenceCeiling))
	source := market.NewSimSource(time.Now().UnixNano())

	a := &App{cfg: cfg}

	if cfg.Store.Path != "" {
		store, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open signal store: %w", err)
		}
		a.store = store
	}
	if cfg.Store.AuditPath != "" {
		audit, err := auditlog.Open(cfg.Store.AuditPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		a.audit = audit
	}

	var notify notifier.TextNotifier
	if tg := cfg.Notify.Telegram; tg.Enabled {
		notify = notifier.NewTelegram(tg.BotToken, tg.ChatID)
	}

	account := engine.Account{
		Balance:        cfg.Risk.AccountBalance,
		RiskPercentage: cfg.Risk.RiskPercentage,
	}

	server, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Engine:  eng,
		Source:  source,
		Store:   a.store,
		Account: account,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.server = server

	if sc := cfg.Scheduler; sc.Enabled && len(sc.Symbols) > 0 {
		runner := &scheduler.Runner{
			Source:  source,
			Engine:  eng,
			Store:   a.store,
			Audit:   a.audit,
			Notify:  notify,
			Symbols: sc.Symbols,
			Top:     sc.TopSignals,
			Account: account,
		}
		if cfg.Chart.Enabled {
			runner.ChartDir = cfg.Chart.OutputDir
		}
		a.runner = runner
	}
	return a, nil
}

// Run serves HTTP and, when enabled, the aligned signal schedule until the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("http server listening on %s", a.server.Addr())
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.runner != nil {
		sc := a.cfg.Scheduler
		interval := time.Duration(sc.IntervalMinutes) * time.Minute
		group.Go(func() error {
			sched := scheduler.NewAlignedScheduler(ctx, interval, 0)
			sched.RunImmediately = sc.RunImmediately
			sched.Start(func() {
				if _, err := a.runner.RunOnce(ctx); err != nil && ctx.Err() == nil {
					logger.Errorf("scheduled batch: %v", err)
				}
			})
			return nil
		})
	}

	return group.Wait()
}

// Close releases store handles. Safe to call more than once.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("close signal store: %v", err)
		}
		a.store = nil
	}
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			logger.Warnf("close audit log: %v", err)
		}
		a.audit = nil
	}
}

func buildCatalog(cfg *config.Config) (*config.SymbolCatalog, error) {
	if cfg.Symbols.Path == "" {
		return config.NewSymbolCatalog(), nil
	}
	catalog, err := config.NewSymbolCatalogFromFile(cfg.Symbols.Path, cfg.Symbols.Watch)
	if err != nil {
		return nil, fmt.Errorf("load symbol catalog: %w", err)
	}
	return catalog, nil
}

func buildAugment(cfg *config.Config) *augment.Client {
	cache := augment.NewCache(time.Duration(cfg.Augment.CacheTTLSecs) * time.Second)
	if !cfg.Augment.Enabled {
		return augment.NewClient(nil, cache)
	}
	provider := &augment.OpenAIChatClient{
		BaseURL:      cfg.Augment.APIURL,
		APIKey:       cfg.Augment.APIKey,
		Model:        cfg.Augment.Model,
		Timeout:      time.Duration(cfg.Augment.TimeoutSeconds) * time.Second,
		MaxRetries:   cfg.Augment.MaxRetries,
		ExtraHeaders: cfg.Augment.Headers,
	}
	return augment.NewClient(provider, cache)
}
