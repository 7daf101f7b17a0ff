package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// SetLinkHeaders adds RFC 8288 Link headers for a search page. Links keep
// the request's filters and rewrite from/size.
func SetLinkHeaders(c *fiber.Ctx, p domain.PageInfo) {
	if p.TotalPages == 0 || p.Size <= 0 {
		return
	}

	base := c.Path()
	q := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		q.Add(string(k), string(v))
	})
	q.Del("page")

	link := func(from int, rel string) string {
		q.Set("from", strconv.Itoa(from))
		q.Set("size", strconv.Itoa(p.Size))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, base, q.Encode(), rel)
	}

	links := []string{link(0, "first")}
	if p.CurrentPage > 1 {
		links = append(links, link(max(p.From-p.Size, 0), "prev"))
	}
	if p.CurrentPage < p.TotalPages {
		links = append(links, link(p.From+p.Size, "next"))
	}
	links = append(links, link(domain.OffsetForPage(p.TotalPages, p.Size), "last"))

	c.Set("Link", strings.Join(links, ", "))
}
