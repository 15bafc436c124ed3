// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/internal/bootstrap"
	"github.com/specbot/kickbot/internal/config"
	"github.com/specbot/kickbot/internal/server"
	"github.com/specbot/kickbot/pkg/common"
	"github.com/specbot/kickbot/pkg/cycle"
	"github.com/specbot/kickbot/pkg/kick"
	"github.com/specbot/kickbot/pkg/perception"
	"github.com/specbot/kickbot/pkg/perception/replay"
	"github.com/specbot/kickbot/pkg/roster"
	"github.com/specbot/kickbot/pkg/service"
	"github.com/specbot/kickbot/pkg/service/ledger"
	"github.com/specbot/kickbot/pkg/service/local"
	"github.com/specbot/kickbot/pkg/state"
)

// violationQueueSize bounds detections waiting for the coordinator.
const violationQueueSize = 64

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	shutdownTelemetry func(context.Context) error

	status   *state.BotStatus
	backend  *bootstrap.Backend
	ledger   service.LedgerStore
	notifier service.NotificationSink
	pool     *perception.Pool
	stats    *kick.Stats

	coordinator  *kick.Coordinator
	orchestrator *cycle.Orchestrator
	refresher    *cycle.Refresher

	violations chan kick.Violation
	refreshed  chan struct{}

	stopLoops context.CancelFunc
	loops     sync.WaitGroup
}

// New creates and initializes a new application instance.
//
// ============================================================
// DEVELOPER: Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Redis (only for the Redis ledger)
// 2. Layout file and replay scenario
// 3. External services (backend, ledger, notifier, input)
// 4. Shared state (bot status, roster, kick state)
// 5. Bot components (perception, coordinator, cycle loops)
// 6. Servers (gRPC health, metrics)
// 7. Telemetry (OpenTelemetry tracing)
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{
		cfg:        cfg,
		violations: make(chan kick.Violation, violationQueueSize),
		refreshed:  make(chan struct{}, 1),
	}

	// ============================================================
	// Step 1: Initialize Redis
	// ============================================================
	if cfg.LedgerBackend == config.LedgerRedis {
		client, err := ledger.NewRedisClient(ctx, ledger.RedisConfig{
			Host:       cfg.RedisHost,
			Port:       cfg.RedisPort,
			Password:   cfg.RedisPassword,
			MaxRetries: cfg.RedisMaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		app.redisClient = client
	}

	// ============================================================
	// Step 2: Load layout file and replay scenario
	// ============================================================
	layout, err := config.LoadLayout(cfg.LayoutPath)
	if err != nil {
		app.closeConnections()
		return nil, err
	}
	logrus.Infof("loaded layout from %s", cfg.LayoutPath)

	var scenario *replay.Scenario
	if cfg.BotMode == config.ModeReplay {
		scenario, err = replay.LoadScenario(cfg.ReplayPath)
		if err != nil {
			app.closeConnections()
			return nil, err
		}
		logrus.Infof("loaded replay scenario from %s (%d frames)", cfg.ReplayPath, len(scenario.Frames))
	}

	// ============================================================
	// Step 3: Initialize external services
	// ============================================================
	app.backend, err = bootstrap.InitBackend(ctx, cfg, scenario)
	if err != nil {
		app.closeConnections()
		return nil, fmt.Errorf("failed to init backend: %w", err)
	}

	var redisClient redis.UniversalClient
	if app.redisClient != nil {
		redisClient = app.redisClient
	}
	app.ledger, err = bootstrap.InitLedger(ctx, cfg, redisClient)
	if err != nil {
		app.closeConnections()
		return nil, fmt.Errorf("failed to init ledger: %w", err)
	}

	app.notifier = bootstrap.InitNotifier(cfg)

	var archiver perception.Archiver
	if cfg.SaveScreenshots {
		dir, err := local.NewDirArchiver(cfg.ScreenshotDir)
		if err != nil {
			app.closeConnections()
			return nil, err
		}
		archiver = dir
	}

	// ============================================================
	// Step 4: Shared state
	// ============================================================
	app.status = state.NewBotStatus()
	store := roster.NewStore(app.backend.GameID)
	app.stats = kick.NewStats(time.Now())

	// ============================================================
	// Step 5: Bot components
	// ============================================================
	// Detections flow from the orchestrator to the coordinator over
	// app.violations; the refresher tells the coordinator about new
	// rosters over app.refreshed.
	// ============================================================
	p, err := bootstrap.InitPerception(cfg, layout, scenario)
	if err != nil {
		app.closeConnections()
		return nil, fmt.Errorf("failed to init perception: %w", err)
	}
	app.pool = p.Pool

	tracker := state.NewTracker(app.status, p.Matcher)

	app.coordinator = kick.NewCoordinator(
		kick.Config{KicksToPing: cfg.KicksToPing, Timeout: cfg.KickTimeout},
		kick.Dependencies{Backend: app.backend.Kicker, Ledger: app.ledger, Notifier: app.notifier},
		kick.NewState(),
		store,
		roster.NewReconciler(p.Matcher),
		app.stats,
	)

	app.refresher = cycle.NewRefresher(
		cycle.RefresherConfig{Interval: cfg.RosterRefreshInterval, MinPlayers: cfg.MinPlayersForKick},
		app.backend.Roster,
		store,
		app.status,
		app.refreshed,
	)

	process := local.CommandProcess{Stop: cfg.GameStopCommand, Launch: cfg.GameLaunchCommand}
	app.orchestrator = cycle.NewOrchestrator(
		cycle.Config{RotateDelay: cfg.RotateDelay, SaveScreenshots: cfg.SaveScreenshots},
		cycle.Components{
			Pool:       p.Pool,
			Reader:     p.Reader,
			Identifier: p.Identifier,
			Tracker:    tracker,
			Status:     app.status,
			Keys:       local.LogKeys{},
			Window:     local.AlwaysFocused{},
			Supervisor: cycle.NewSupervisor(process, app.notifier, store, tracker, app.status),
			Archiver:   archiver,
		},
		app.violations,
	)

	// ============================================================
	// Step 6: Setup servers
	// ============================================================
	var ledgerHealth server.Pinger
	if app.redisClient != nil {
		ledgerHealth = ledger.NewHealthChecker(app.redisClient)
	}
	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort, app.status, ledgerHealth)
	if err := app.grpcServer.Setup(); err != nil {
		app.closeConnections()
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics", app.status)
	if err := app.metricsServer.Setup(); err != nil {
		app.closeConnections()
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	// ============================================================
	// Step 7: Setup telemetry
	// ============================================================
	shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, 0, cfg.ZipkinURL)
	if err != nil {
		app.closeConnections()
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}
	app.shutdownTelemetry = shutdownTelemetry

	logrus.Info("application initialized successfully")

	return app, nil
}

// startLoops runs the coordinator, the roster refresher and the spectator
// cycle until stopLoops is called.
func (a *App) startLoops(ctx context.Context) {
	ctx, a.stopLoops = context.WithCancel(ctx)

	a.loops.Add(3)
	go func() {
		defer a.loops.Done()
		a.coordinator.Run(ctx, a.violations, a.refreshed)
	}()
	go func() {
		defer a.loops.Done()
		if err := a.refresher.Run(ctx); err != nil {
			logrus.Errorf("roster refresher stopped: %v", err)
		}
	}()
	go func() {
		defer a.loops.Done()
		if err := a.orchestrator.Run(ctx); err != nil {
			logrus.Errorf("spectator cycle stopped: %v", err)
		}
	}()
}

// stopLoopsAndWait stops the loops and waits for in-flight perception and kicks.
func (a *App) stopLoopsAndWait() {
	if a.stopLoops == nil {
		return
	}
	a.stopLoops()
	a.loops.Wait()
	a.orchestrator.Wait()
	a.coordinator.Wait()
}

// announce sends a monitoring event under its own span.
func (a *App) announce(ctx context.Context, e service.Event) {
	scope := common.NewScope(ctx, "app.announce")
	defer scope.Finish()
	scope.WithField("event", e.Kind)

	if e.At.IsZero() {
		e.At = time.Now()
	}
	a.notifier.Announce(scope.Ctx, e)
}

// closeConnections closes the ledger, the perception pool and Redis.
func (a *App) closeConnections() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			logrus.Errorf("ledger close error: %v", err)
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			logrus.Errorf("perception pool close error: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close error: %v", err)
		}
	}
}
