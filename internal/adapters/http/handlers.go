package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/valyala/fasthttp"

	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/usecases"
	"github.com/samirrijal/pawmatch/internal/pkg/geospatial"
)

type loginRequest struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

type favoritesResponse struct {
	IDs []string `json:"ids"`
}

type toggleResponse struct {
	ID       string   `json:"id"`
	Favorite bool     `json:"favorite"`
	IDs      []string `json:"ids"`
}

type nearbySearchResponse struct {
	Results *domain.SearchPage `json:"results"`
	Nearby  *domain.Nearby     `json:"nearby"`
}

type scheduledMatchResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// LoginHandler logs in upstream and sets the session cookie.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "body must contain name and email")
		}

		session, err := deps.Auth.Login(c.UserContext(), req.Name, req.Email)
		if err != nil {
			return writeError(c, err)
		}

		c.Cookie(&fiber.Cookie{
			Name:     deps.cookieName(),
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HTTPOnly: true,
			Secure:   deps.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(loginResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt.UTC(),
			Name:      session.Principal.Name,
			Email:     session.Principal.Email,
		})
	}
}

// LogoutHandler ends the upstream session and clears the cookie. An
// upstream failure is logged; the local session is dropped regardless.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if err := deps.Auth.Logout(ctx); err != nil {
			LoggerFromCtx(ctx).Warn("upstream logout failed", "error", err)
		}
		c.Cookie(&fiber.Cookie{
			Name:     deps.cookieName(),
			Value:    "",
			Path:     "/",
			Expires:  fasthttp.CookieExpireDelete,
			HTTPOnly: true,
			Secure:   deps.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// BoundsHandler returns the bounding box around lat/lon with the given
// diagonal in miles (default 10).
func BoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, lon, miles, err := parseCenter(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		box, err := deps.Nearby.Bounds(lat, lon, miles)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(box)
	}
}

// BreedsHandler lists every breed known upstream.
func BreedsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		breeds, err := deps.Search.Breeds(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(breeds)
	}
}

// SearchDogsHandler runs a filtered, sorted, paginated dog search.
func SearchDogsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseSearchQuery(c)
		if err != nil {
			return writeError(c, err)
		}
		page, err := deps.Search.Search(c.UserContext(), q)
		if err != nil {
			return writeError(c, err)
		}
		SetLinkHeaders(c, page.Page)
		return c.JSON(page)
	}
}

// GetDogsHandler returns the dogs named by ?ids=, at most 100.
func GetDogsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return respondDogs(c, deps, queryList(c, "ids"))
	}
}

// PostDogsHandler is the deprecated form of GetDogsHandler taking a JSON
// array of IDs.
func PostDogsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ids []string
		if err := c.BodyParser(&ids); err != nil {
			return errBadRequest(c, "body must be a JSON array of dog ids")
		}
		return respondDogs(c, deps, ids)
	}
}

func respondDogs(c *fiber.Ctx, deps *Dependencies, ids []string) error {
	if len(ids) == 0 {
		return errBadRequest(c, "at least one dog id is required")
	}
	if len(ids) > usecases.MaxBatch {
		return errBadRequest(c, fmt.Sprintf("at most %d dog ids per request", usecases.MaxBatch))
	}
	dogs, err := deps.Search.Dogs(c.UserContext(), ids)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dogs)
}

// NearbyLocationsHandler lists the ZIP codes inside the box around lat/lon.
func NearbyLocationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, lon, miles, err := parseCenter(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		nearby, err := deps.Nearby.NearbyZipCodes(c.UserContext(), lat, lon, miles)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(nearby)
	}
}

// NearbyDogsHandler searches dogs located inside the box around lat/lon.
func NearbyDogsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, lon, miles, err := parseCenter(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		q, err := parseSearchQuery(c)
		if err != nil {
			return writeError(c, err)
		}
		page, nearby, err := deps.Nearby.SearchNearby(c.UserContext(), lat, lon, miles, q)
		if err != nil {
			return writeError(c, err)
		}
		SetLinkHeaders(c, page.Page)
		return c.JSON(nearbySearchResponse{Results: page, Nearby: nearby})
	}
}

// ListFavoritesHandler returns the caller's favorite dog IDs.
func ListFavoritesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids, err := deps.Favorites.List(c.UserContext(), principal(c).Owner())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(favoritesResponse{IDs: ids})
	}
}

// ToggleFavoriteHandler adds or removes a dog from the caller's favorites.
func ToggleFavoriteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Params("id"))
		added, ids, err := deps.Favorites.Toggle(c.UserContext(), principal(c).Owner(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(toggleResponse{ID: id, Favorite: added, IDs: ids})
	}
}

// FavoriteDogsHandler returns the details of the caller's favorites.
func FavoriteDogsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dogs, err := deps.Matches.FavoriteDogs(c.UserContext(), principal(c).Owner())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(dogs)
	}
}

// MatchHandler picks a match out of the caller's favorites. With
// ?async=true the match runs as a workflow and is announced over the
// websocket.
func MatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		p := principal(c)

		if c.QueryBool("async", false) {
			if deps.Scheduler == nil {
				return errUnavailable(c, "async matching is not enabled")
			}
			if _, err := deps.Matches.Candidates(ctx, p.Owner()); err != nil {
				return writeError(c, err)
			}
			runID, err := deps.Scheduler.ScheduleMatch(ctx, p.Owner(), p.UpstreamToken)
			if err != nil {
				return writeError(c, err)
			}
			return c.Status(fiber.StatusAccepted).JSON(scheduledMatchResponse{RunID: runID, Status: "scheduled"})
		}

		m, err := deps.Matches.Match(ctx, p.Owner())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(m)
	}
}

// parseCenter reads lat, lon and the optional miles diagonal.
func parseCenter(c *fiber.Ctx) (lat, lon, miles float64, err error) {
	if lat, err = requiredFloat(c, "lat"); err != nil {
		return 0, 0, 0, err
	}
	if lon, err = requiredFloat(c, "lon"); err != nil {
		return 0, 0, 0, err
	}
	miles = geospatial.DefaultDiagonalMiles
	if raw := c.Query("miles"); raw != "" {
		if miles, err = strconv.ParseFloat(raw, 64); err != nil {
			return 0, 0, 0, errors.New("miles must be a number")
		}
	}
	return lat, lon, miles, nil
}

func requiredFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func optionalInt(c *fiber.Ctx, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.InvalidArgument("%s must be an integer", name)
	}
	return &v, nil
}

// queryList collects a parameter given either repeatedly or as a comma
// separated list.
func queryList(c *fiber.Ctx, name string) []string {
	var out []string
	for _, raw := range c.Request().URI().QueryArgs().PeekMulti(name) {
		for _, v := range strings.Split(string(raw), ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// parseSearchQuery reads breeds, zipCodes, ageMin, ageMax, sort, size and
// either from or page.
func parseSearchQuery(c *fiber.Ctx) (domain.SearchQuery, error) {
	q := domain.SearchQuery{
		Breeds:   queryList(c, "breeds"),
		ZipCodes: queryList(c, "zipCodes"),
	}

	var err error
	if q.AgeMin, err = optionalInt(c, "ageMin"); err != nil {
		return q, err
	}
	if q.AgeMax, err = optionalInt(c, "ageMax"); err != nil {
		return q, err
	}
	if q.Sort, err = domain.ParseSort(c.Query("sort")); err != nil {
		return q, err
	}

	size, err := optionalInt(c, "size")
	if err != nil {
		return q, err
	}
	if size != nil {
		q.Size = *size
	}

	from, err := optionalInt(c, "from")
	if err != nil {
		return q, err
	}
	page, err := optionalInt(c, "page")
	if err != nil {
		return q, err
	}
	switch {
	case from != nil:
		q.From = *from
	case page != nil:
		if *page < 1 {
			return q, domain.InvalidArgument("page must be at least 1")
		}
		pageSize := q.Size
		if pageSize <= 0 {
			pageSize = domain.PageSize
		}
		q.From = domain.OffsetForPage(*page, min(pageSize, usecases.MaxSearchSize))
	}
	return q, nil
}
