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
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/pawmatch/internal/adapters/http"
	natsadapter "github.com/samirrijal/pawmatch/internal/adapters/nats"
	"github.com/samirrijal/pawmatch/internal/auth"
	"github.com/samirrijal/pawmatch/internal/bootstrap"
	"github.com/samirrijal/pawmatch/internal/core/usecases"
	"github.com/samirrijal/pawmatch/internal/pkg/config"
	"github.com/samirrijal/pawmatch/internal/pkg/logging"
	"github.com/samirrijal/pawmatch/internal/pkg/telemetry"
	"github.com/samirrijal/pawmatch/internal/workflows"
)

func main() {
	cfg, err := config.Load("pawmatch-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.RequireSession(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	infra, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("backing services: %v", err)
	}
	defer infra.Close()

	issuer, err := auth.NewIssuer(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		log.Fatalf("session issuer: %v", err)
	}

	// Use cases
	publisher := infra.EventPublisher()
	searchSvc := usecases.NewSearchService(infra.Catalog, infra.CacheService())
	favoritesSvc := usecases.NewFavoritesService(infra.Favorites, publisher)

	deps := &http.Dependencies{
		Auth:         usecases.NewAuthService(infra.Catalog, issuer),
		Search:       searchSvc,
		Nearby:       usecases.NewNearbyService(infra.Catalog, searchSvc, usecases.DefaultNearbyLimit),
		Favorites:    favoritesSvc,
		Matches:      usecases.NewMatchService(infra.Catalog, favoritesSvc, publisher),
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.Secure,
		NATS:         infra.Publisher,
		DB:           infra.DB,
		Cache:        infra.Cache,
	}

	// Match announcements for websocket clients
	if cfg.NATS.Enabled {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			deps.Events = sub
		}
	}

	// Async matching
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable, async matching disabled", "error", err)
		} else {
			defer tc.Close()
			deps.Scheduler = workflows.NewScheduler(tc, cfg.Temporal.TaskQueue)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "PawMatch API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.CORSOrigins, ", "),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: !corsWildcard(cfg.Server.CORSOrigins),
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "favorites_backend", infra.Favorites.Name())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// corsWildcard reports whether origins allow any origin. Fiber refuses
// credentials with a wildcard origin.
func corsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
