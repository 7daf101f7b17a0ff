// Package bootstrap opens the backing services named by the configuration
// and hands them to the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/pawmatch/internal/adapters/dogapi"
	"github.com/samirrijal/pawmatch/internal/adapters/localstore"
	natsadapter "github.com/samirrijal/pawmatch/internal/adapters/nats"
	"github.com/samirrijal/pawmatch/internal/adapters/postgres"
	"github.com/samirrijal/pawmatch/internal/adapters/valkey"
	"github.com/samirrijal/pawmatch/internal/core/ports"
	"github.com/samirrijal/pawmatch/internal/pkg/config"
)

// Infra is the set of opened backing services. Optional services are nil
// when disabled.
type Infra struct {
	Catalog   *dogapi.Client
	Favorites ports.FavoritesBackend
	DB        *postgres.DB
	Cache     *valkey.Cache
	Publisher *natsadapter.Publisher

	closers []func()
}

// Open connects everything cfg enables. A failure to reach a service the
// favorites backend depends on is fatal; NATS is best effort.
func Open(ctx context.Context, cfg *config.Config) (*Infra, error) {
	in := &Infra{}

	catalog, err := dogapi.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	if err != nil {
		return nil, fmt.Errorf("upstream client: %w", err)
	}
	in.Catalog = catalog
	in.onClose(catalog.CloseIdleConnections)

	if cfg.Valkey.Enabled {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("valkey: %w", err)
		}
		in.Cache = cache
		in.onClose(cache.Close)
	}

	if cfg.Favorites.Backend == config.BackendPostgres {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("database: %w", err)
		}
		in.DB = db
		in.onClose(db.Close)
		go db.ReportPoolStats(ctx, 15*time.Second)
	}

	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, events disabled", "error", err)
		} else {
			in.Publisher = pub
			in.onClose(pub.Close)
		}
	}

	switch cfg.Favorites.Backend {
	case config.BackendSQLite:
		store, err := localstore.OpenSQLite(ctx, cfg.Favorites.Path)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("sqlite favorites: %w", err)
		}
		in.Favorites = store
		in.onClose(func() { _ = store.Close() })
	case config.BackendValkey:
		in.Favorites = in.Cache.Favorites()
	case config.BackendPostgres:
		in.Favorites = postgres.NewFavoritesRepo(in.DB)
	default:
		in.Favorites = localstore.NewMemory()
	}
	slog.Info("favorites backend ready", "backend", in.Favorites.Name())

	return in, nil
}

// EventPublisher returns the publisher as a port, or nil when NATS is off.
func (in *Infra) EventPublisher() ports.EventPublisher {
	if in.Publisher == nil {
		return nil
	}
	return in.Publisher
}

// CacheService returns the cache as a port, or nil when Valkey is off.
func (in *Infra) CacheService() ports.CacheService {
	if in.Cache == nil {
		return nil
	}
	return in.Cache
}

func (in *Infra) onClose(fn func()) {
	in.closers = append(in.closers, fn)
}

// Close releases everything in reverse order of opening.
func (in *Infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}
