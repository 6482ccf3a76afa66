package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ExpressedAi/Sidechain/config"
	"github.com/ExpressedAi/Sidechain/pkg/api"
	"github.com/ExpressedAi/Sidechain/pkg/api/events"
	"github.com/ExpressedAi/Sidechain/pkg/api/handlers"
	"github.com/ExpressedAi/Sidechain/pkg/logger"
	"github.com/ExpressedAi/Sidechain/pkg/memory"
	"github.com/ExpressedAi/Sidechain/pkg/metrics"
	"github.com/ExpressedAi/Sidechain/pkg/storage"
	badgerstore "github.com/ExpressedAi/Sidechain/pkg/storage/badger"
	memorystore "github.com/ExpressedAi/Sidechain/pkg/storage/memory"
	redisstore "github.com/ExpressedAi/Sidechain/pkg/storage/redis"
	"github.com/ExpressedAi/Sidechain/pkg/telemetry/tracing"
	"github.com/ExpressedAi/Sidechain/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")

	// CLI overrides
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("sidechaind %s (built %s, commit %s, %s)\n",
			version.Version, version.BuildTime, version.GitCommit, version.GoVersion)
		os.Exit(0)
	}

	// Build CLI overrides map
	overrides := map[string]interface{}{}
	if *serverPort > 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}

	// Load configuration
	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	// Initialize logger with configuration
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)
	defer log.Close()

	log.Info("Starting Sidechain",
		"version", version.Version,
		"commit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Type,
	)

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Initialize the storage backend
	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Error("Failed to initialize storage", "type", cfg.Storage.Type, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize metrics
	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics.Enabled
	metricsCfg.Port = cfg.Metrics.Port
	metricsCfg.Path = cfg.Metrics.Path
	metricsManager := metrics.NewManager(metricsCfg)

	if metricsManager.Enabled() {
		go func() {
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Initialize the memory engine
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	engine := memory.NewEngine(&cfg.Memory, store, rng, log.With("component", "memory"))
	engine.SetMetrics(metricsManager)

	// Event stream for the host chat loop
	broadcaster := events.NewBroadcaster()
	wsHandler := handlers.NewWebSocketHandler(log.With("component", "websocket"), broadcaster, handlers.WebSocketConfig{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
	})
	go wsHandler.Run(ctx)

	// Build HTTP handlers and server
	apiHandlers := &api.Handlers{
		Memory:   handlers.NewMemoryHandler(engine, log.With("component", "api"), broadcaster),
		Learning: handlers.NewLearningHandler(engine, log.With("component", "api"), broadcaster),
		Health: handlers.NewHealthHandler(handlers.StatusInfo{
			AppName:     cfg.App.Name,
			Version:     version.Version,
			Environment: cfg.App.Environment,
			StorageType: cfg.Storage.Type,
		}, nil),
		WebSocket: wsHandler,
	}
	if metricsManager.Enabled() {
		apiHandlers.Metrics = metricsManager
	}

	server := api.NewHTTPServer(cfg, log, apiHandlers)

	// Hot-reload selection weights on config change
	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, config.NewLoader())
		if err != nil {
			log.Warn("Config watcher unavailable", "error", err)
		} else {
			watcher.OnChange(func(next *config.Config) {
				engine.SetWeights(memory.SelectorWeights{
					Importance:   next.Memory.Weights.Importance,
					TagRelevance: next.Memory.Weights.TagRelevance,
					Lexical:      next.Memory.Weights.Lexical,
					Recency:      next.Memory.Weights.Recency,
					Centrality:   next.Memory.Weights.Centrality,
					Thompson:     next.Memory.Weights.Thompson,
				})
				log.SetLevel(logger.ParseLevel(next.Log.Level))
				log.Info("Configuration reloaded", "weights_sum", next.Memory.Weights.Sum())
			})
			go func() {
				if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
					log.Warn("Config watcher stopped", "error", err)
				}
			}()
		}
	}

	// Start the HTTP server
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("Server error, shutting down", "error", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown failed", "error", err)
	}
	wsHandler.Close()
	cancel()

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("Tracing shutdown failed", "error", err)
	}

	log.Info("Sidechain stopped")
}

// buildStore constructs the configured storage backend.
func buildStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "badger":
		return badgerstore.NewBadgerStore(&badgerstore.Config{
			Path:              cfg.Storage.Badger.Path,
			SyncWrites:        cfg.Storage.Badger.SyncWrites,
			ValueLogFileSize:  cfg.Storage.Badger.ValueLogFileSize,
			NumVersionsToKeep: cfg.Storage.Badger.NumVersionsToKeep,
		})
	case "redis":
		return redisstore.NewRedisStore(ctx, &redisstore.Config{
			Address:   cfg.Storage.Redis.Address,
			Password:  cfg.Storage.Redis.Password,
			DB:        cfg.Storage.Redis.DB,
			KeyPrefix: cfg.Storage.Redis.KeyPrefix,
		})
	case "memory":
		return memorystore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}
