package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/pawmatch/internal/bootstrap"
	"github.com/samirrijal/pawmatch/internal/core/usecases"
	"github.com/samirrijal/pawmatch/internal/pkg/config"
	"github.com/samirrijal/pawmatch/internal/pkg/logging"
	"github.com/samirrijal/pawmatch/internal/workflows"
)

func main() {
	cfg, err := config.Load("pawmatch-matcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Favorites.Backend == config.BackendMemory {
		slog.Warn("favorites.backend is memory; the worker cannot see favorites held by the API process")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infra, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("backing services: %v", err)
	}
	defer infra.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	publisher := infra.EventPublisher()
	favorites := usecases.NewFavoritesService(infra.Favorites, publisher)
	matches := usecases.NewMatchService(infra.Catalog, favorites, publisher)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.MatchWorkflow)
	w.RegisterActivity(&workflows.MatchActivities{Matches: matches})

	slog.Info("matcher worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
