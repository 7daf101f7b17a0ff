package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/pawmatch/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// dogsByPostSunset is when POST /v1/dogs goes away in favor of GET.
var dogsByPostSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Method: fiber.MethodPost, Path: "/v1/dogs", SunsetDate: dogsByPostSunset, Alternative: "/v1/dogs?ids="},
	}))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	SetupDocs(app)

	v1 := app.Group("/v1")
	v1.Post("/auth/login", timeout.NewWithContext(LoginHandler(deps), requestTimeout))
	v1.Get("/geo/bounds", BoundsHandler(deps))

	// Everything below needs a session.
	session := SessionMiddleware(deps)
	v1.Post("/auth/logout", session, timeout.NewWithContext(LogoutHandler(deps), requestTimeout))
	v1.Get("/breeds", session, timeout.NewWithContext(BreedsHandler(deps), requestTimeout))
	v1.Get("/dogs/search", session, timeout.NewWithContext(SearchDogsHandler(deps), requestTimeout))
	v1.Get("/dogs/nearby", session, timeout.NewWithContext(NearbyDogsHandler(deps), requestTimeout))
	v1.Get("/dogs", session, timeout.NewWithContext(GetDogsHandler(deps), requestTimeout))
	v1.Post("/dogs", session, timeout.NewWithContext(PostDogsHandler(deps), requestTimeout))
	v1.Get("/locations/nearby", session, timeout.NewWithContext(NearbyLocationsHandler(deps), requestTimeout))
	v1.Get("/favorites", session, timeout.NewWithContext(ListFavoritesHandler(deps), requestTimeout))
	v1.Get("/favorites/dogs", session, timeout.NewWithContext(FavoriteDogsHandler(deps), requestTimeout))
	v1.Post("/favorites/:id/toggle", session, timeout.NewWithContext(ToggleFavoriteHandler(deps), requestTimeout))
	v1.Post("/match", session, timeout.NewWithContext(MatchHandler(deps), requestTimeout))

	app.Post("/graphql", session, timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	// WebSocket
	app.Use("/ws", session, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
