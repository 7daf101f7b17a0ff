package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/pawmatch/internal/adapters/dogapi"
	"github.com/samirrijal/pawmatch/internal/auth"
	"github.com/samirrijal/pawmatch/internal/core/domain"
)

const (
	ownerKeyLocal  = "owner_key"
	principalLocal = "principal"
)

// SessionMiddleware requires a valid session token, read from the
// Authorization header or the session cookie. The principal and its
// upstream token are placed in the request context.
func SessionMiddleware(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			token = c.Cookies(deps.cookieName())
		}
		p, err := deps.Auth.Authenticate(token)
		if err != nil {
			return errUnauthorized(c, "login required")
		}

		ctx := auth.WithPrincipal(c.UserContext(), p)
		ctx = dogapi.WithToken(ctx, p.UpstreamToken)
		ownerKey := domain.OwnerKey(p.Owner())
		ctx = withLogger(ctx, LoggerFromCtx(ctx).With(ownerKeyLocal, ownerKey))
		c.SetUserContext(ctx)
		c.Locals(ownerKeyLocal, ownerKey)
		c.Locals(principalLocal, p)
		return c.Next()
	}
}

// principal returns the session principal. It is only nil outside
// SessionMiddleware.
func principal(c *fiber.Ctx) *auth.Principal {
	p, _ := auth.FromContext(c.UserContext())
	return p
}
