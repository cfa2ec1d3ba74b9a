package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"summitgo/internal/api"
	"summitgo/pkg/config"
	"summitgo/pkg/db"
	"summitgo/pkg/logging"
	"summitgo/pkg/netmon"
	"summitgo/pkg/peakapi"
	"summitgo/pkg/probe"
	"summitgo/pkg/queue"
	"summitgo/pkg/request"
	"summitgo/pkg/store"
	syncengine "summitgo/pkg/sync"
	"summitgo/pkg/tracker"
	"summitgo/pkg/version"
	"summitgo/pkg/views"
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", "configs/summitgo.yaml", "Path to config file")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// .env carries the API token locally; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Starting SummitGo sync engine", "version", version.Version)

	database, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := database.PruneCache(cfg.Cache.TTL.Std()); err != nil {
		slog.Warn("Cache pruning failed", "error", err)
	}

	st := store.NewSQLiteStore(database)
	trk := tracker.New()
	httpClient := request.New(cfg.API.Token, trk)
	apiClient := peakapi.New(cfg.API.BaseURL, httpClient, st, trk)

	// Startup checks: a broken local db is fatal, an unreachable backend
	// is not (that is the whole point of the offline queue).
	results := probe.Run(ctx, []probe.Probe{
		{
			Name:     "local-db",
			Critical: true,
			Check: func(ctx context.Context) error {
				return st.SetState(ctx, "last_start", time.Now().UTC().Format(time.RFC3339))
			},
		},
		{
			Name:  "backend",
			Check: apiClient.Ping,
		},
	})
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	repo := queue.New(st)
	if err := repo.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to load pending submissions: %w", err)
	}

	hub := api.NewHub()
	defer hub.Close()

	pipeline := syncengine.NewPipeline(apiClient, trk)
	processor := syncengine.NewProcessor(apiClient, pipeline)
	reporter := syncengine.NewReporter(hub, views.NewInvalidator(st))
	engine := syncengine.NewEngine(repo, processor, reporter)

	monitor := netmon.New(apiClient, cfg.Sync.ProbeInterval.Std())
	engine.Start(ctx, monitor)
	monitor.Start(ctx)
	defer monitor.Stop()
	defer engine.Stop()

	server := api.NewServer(cfg.Server.Addr,
		&api.QueueHandler{Repo: repo},
		&api.SyncHandler{Engine: engine},
		&api.StatsHandler{Tracker: trk},
		hub,
		cancel,
	)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Local API listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("Shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Server shutdown incomplete", "error", err)
	}
	return nil
}
