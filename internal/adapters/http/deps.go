package http

import (
	natsadapter "github.com/samirrijal/pawmatch/internal/adapters/nats"
	"github.com/samirrijal/pawmatch/internal/adapters/postgres"
	"github.com/samirrijal/pawmatch/internal/adapters/valkey"
	"github.com/samirrijal/pawmatch/internal/core/ports"
	"github.com/samirrijal/pawmatch/internal/core/usecases"
)

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "pawmatch_session"

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Auth      *usecases.AuthService
	Search    *usecases.SearchService
	Nearby    *usecases.NearbyService
	Favorites *usecases.FavoritesService
	Matches   *usecases.MatchService

	// Scheduler runs POST /v1/match?async=true. Nil disables async matching.
	Scheduler ports.MatchScheduler
	// Events feeds match announcements to websocket clients. Optional.
	Events ports.EventSubscriber

	CookieName   string
	CookieSecure bool

	NATS  *natsadapter.Publisher
	DB    *postgres.DB
	Cache *valkey.Cache
}

func (d *Dependencies) cookieName() string {
	if d.CookieName == "" {
		return DefaultCookieName
	}
	return d.CookieName
}
