package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/metropath/internal/adapters/dataset"
	"github.com/samirrijal/metropath/internal/adapters/http"
	"github.com/samirrijal/metropath/internal/adapters/memory"
	natsadapter "github.com/samirrijal/metropath/internal/adapters/nats"
	"github.com/samirrijal/metropath/internal/adapters/postgres"
	"github.com/samirrijal/metropath/internal/adapters/valkey"
	"github.com/samirrijal/metropath/internal/core/ports"
	"github.com/samirrijal/metropath/internal/core/routing"
	"github.com/samirrijal/metropath/internal/core/usecases"
	"github.com/samirrijal/metropath/internal/pkg/config"
	"github.com/samirrijal/metropath/internal/pkg/logging"
	"github.com/samirrijal/metropath/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("metropath-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{}

	// Network source
	var repo ports.NetworkRepository
	switch cfg.Routing.Source {
	case config.SourcePostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportStats(ctx, 15*time.Second)
		repo = postgres.NewNetworkRepo(db)
		deps.DB = db
	default:
		repo = dataset.NewRepo(cfg.Routing.DatasetPath)
	}

	// Cache
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr, "metropath:"); err != nil {
		slog.Warn("valkey unavailable, route cache disabled", "error", err)
	} else {
		defer c.Close()
		cache = c
		deps.Cache = c
	}

	// Event publisher
	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	// Raw NATS connection for WebSocket relay
	if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer nc.Close()
		deps.NATS = nc
	}

	// History sessions
	store := memory.NewHistoryStore(time.Duration(cfg.Routing.HistoryIdleTTL) * time.Second)
	defer store.Close()

	// Use cases
	costs := routing.Costs{StopMinutes: cfg.Routing.StopMinutes, TransferMinutes: cfg.Routing.TransferMinutes}
	networks := usecases.NewNetworkService(repo, costs, logger)
	deps.Network = networks
	deps.Stations = usecases.NewStationService(networks)
	deps.Routes = usecases.NewRouteService(networks, cache, publisher, cfg.Routing.CacheTTL)
	deps.History = usecases.NewHistoryService(store, cfg.Routing.HistoryCapacity)

	// Build the graph up front; readiness reports a failure.
	if snap, err := networks.Reload(ctx); err != nil {
		slog.Error("initial network load failed", "error", err)
	} else {
		slog.Info("network loaded", "checksum", snap.Checksum,
			"nodes", snap.Planner.Graph().NodeCount(), "arcs", snap.Planner.Graph().ArcCount())
	}

	// Rebuild when an import announces a new revision.
	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, consumerName()); err != nil {
		slog.Warn("network update subscription unavailable", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeNetworkUpdates(ctx, networks.HandleNetworkUpdated); err != nil {
			slog.Warn("subscribe network updates", "error", err)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Metropath API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, " + http.SessionHeader,
		ExposeHeaders:    http.SessionHeader,
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "source", cfg.Routing.Source)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// consumerName returns a per-instance durable name so every API instance
// receives every network update.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = memory.NewSessionID()
	}
	return "metropath-api-" + strings.NewReplacer(".", "-", " ", "-", "*", "-", ">", "-").Replace(host)
}
