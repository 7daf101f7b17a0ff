package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/pawmatch/internal/adapters/http"
	"github.com/samirrijal/pawmatch/internal/adapters/dogapi"
	"github.com/samirrijal/pawmatch/internal/adapters/localstore"
	"github.com/samirrijal/pawmatch/internal/auth"
	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/usecases"
)

const (
	testSecret    = "handler-test-secret-0123456789"
	upstreamToken = "upstream-token"
)

// ---- Fake upstream ----

type fakeCatalog struct {
	mu        sync.Mutex
	dogs      map[string]domain.Dog
	locations map[string]domain.Location
	breeds    []string

	loginErr  error
	breedsErr error
	searchFn  func(q domain.SearchQuery) (*domain.SearchResult, error)
	nearbyFn  func(q domain.LocationQuery) (*domain.LocationResult, error)
	matchFn   func(ids []string) (string, error)

	searches  []domain.SearchQuery
	lastToken string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		dogs: map[string]domain.Dog{
			"d1": {ID: "d1", Name: "Rex", Breed: "Beagle", Age: 3, ZipCode: "10001"},
			"d2": {ID: "d2", Name: "Bella", Breed: "Boxer", Age: 5, ZipCode: "02110"},
			"d3": {ID: "d3", Name: "Max", Breed: "Pug", Age: 1, ZipCode: "10001"},
		},
		locations: map[string]domain.Location{
			"10001": {ZipCode: "10001", City: "New York", State: "NY", Latitude: 40.75, Longitude: -73.99},
		},
		breeds: []string{"Beagle", "Boxer", "Pug"},
	}
}

func (f *fakeCatalog) record(ctx context.Context) {
	tok, _ := dogapi.TokenFromContext(ctx)
	f.mu.Lock()
	f.lastToken = tok
	f.mu.Unlock()
}

func (f *fakeCatalog) token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastToken
}

func (f *fakeCatalog) Login(ctx context.Context, name, email string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return upstreamToken, nil
}

func (f *fakeCatalog) Logout(ctx context.Context) error {
	f.record(ctx)
	return nil
}

func (f *fakeCatalog) Breeds(ctx context.Context) ([]string, error) {
	f.record(ctx)
	if f.breedsErr != nil {
		return nil, f.breedsErr
	}
	return f.breeds, nil
}

func (f *fakeCatalog) SearchDogs(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	f.record(ctx)
	f.mu.Lock()
	f.searches = append(f.searches, q)
	f.mu.Unlock()
	if f.searchFn != nil {
		return f.searchFn(q)
	}
	return &domain.SearchResult{}, nil
}

func (f *fakeCatalog) GetDogs(ctx context.Context, ids []string) ([]domain.Dog, error) {
	f.record(ctx)
	var out []domain.Dog
	for _, id := range ids {
		if d, ok := f.dogs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Match(ctx context.Context, ids []string) (string, error) {
	f.record(ctx)
	if f.matchFn != nil {
		return f.matchFn(ids)
	}
	return ids[len(ids)-1], nil
}

func (f *fakeCatalog) GetLocations(ctx context.Context, zipCodes []string) ([]domain.Location, error) {
	f.record(ctx)
	var out []domain.Location
	for _, z := range zipCodes {
		if l, ok := f.locations[z]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SearchLocations(ctx context.Context, q domain.LocationQuery) (*domain.LocationResult, error) {
	f.record(ctx)
	if f.nearbyFn != nil {
		return f.nearbyFn(q)
	}
	return &domain.LocationResult{Results: []domain.Location{}}, nil
}

type fakeScheduler struct {
	owner, token string
}

func (s *fakeScheduler) ScheduleMatch(ctx context.Context, owner, token string) (string, error) {
	s.owner, s.token = owner, token
	return "match-run-1", nil
}

// ---- Test helpers ----

type testEnv struct {
	app     *fiber.App
	catalog *fakeCatalog
	issuer  *auth.Issuer
	deps    *handler.Dependencies
}

func newTestEnv(t *testing.T, opts ...func(*testEnv)) *testEnv {
	t.Helper()
	issuer, err := auth.NewIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	catalog := newFakeCatalog()
	favorites := usecases.NewFavoritesService(localstore.NewMemory(), nil)
	search := usecases.NewSearchService(catalog, nil)

	env := &testEnv{
		catalog: catalog,
		issuer:  issuer,
		deps: &handler.Dependencies{
			Auth:      usecases.NewAuthService(catalog, issuer),
			Search:    search,
			Nearby:    usecases.NewNearbyService(catalog, search, 0),
			Favorites: favorites,
			Matches:   usecases.NewMatchService(catalog, favorites, nil),
		},
	}
	for _, o := range opts {
		o(env)
	}

	env.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(env.app, env.deps)
	return env
}

func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	s, err := e.issuer.Issue(auth.Principal{Name: "Tester", Email: email, UpstreamToken: upstreamToken})
	if err != nil {
		t.Fatal(err)
	}
	return s.Token
}

func (e *testEnv) do(t *testing.T, method, target, token string, body string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, b)
	}
}

type apiError struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
}

// ---- System ----

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/v1/health", "", "")
	expectStatus(t, resp, 200)

	var body map[string]string
	decode(t, resp, &body)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %q", body["status"])
	}
}

func TestReady_NothingConfigured(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/v1/ready", "", "")
	expectStatus(t, resp, 200)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	if body.Checks["database"] != "not configured" {
		t.Errorf("unexpected database check %q", body.Checks["database"])
	}
}

func TestDocs(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/docs/openapi.yaml", "", "")
	expectStatus(t, resp, 200)
	if ct := resp.Header.Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("unexpected content type %q", ct)
	}
}

// ---- Auth ----

func TestLogin_SetsCookie(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/v1/auth/login", "", `{"name":"Ada","email":"Ada@Example.com"}`)
	expectStatus(t, resp, 200)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == handler.DefaultCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	var body struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}
	decode(t, resp, &body)
	if body.Email != "ada@example.com" {
		t.Errorf("expected normalized email, got %q", body.Email)
	}
	p, err := env.issuer.Parse(body.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if p.UpstreamToken != upstreamToken {
		t.Errorf("expected upstream token in session, got %q", p.UpstreamToken)
	}
}

func TestLogin_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/v1/auth/login", "", `{"name":"Ada","email":"not-an-email"}`)
	expectStatus(t, resp, 400)

	var apiErr apiError
	decode(t, resp, &apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request, got %s", apiErr.Code)
	}
}

func TestLogin_UpstreamDown(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.catalog.loginErr = &domain.UpstreamError{Endpoint: "/auth/login", Status: 503}
	})
	resp := env.do(t, "POST", "/v1/auth/login", "", `{"name":"Ada","email":"ada@example.com"}`)
	expectStatus(t, resp, 502)
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	env := newTestEnv(t)
	for _, target := range []string{"/v1/favorites", "/v1/breeds", "/v1/dogs/search"} {
		resp := env.do(t, "GET", target, "", "")
		if resp.StatusCode != 401 {
			t.Errorf("%s: expected 401, got %d", target, resp.StatusCode)
		}
	}
	resp := env.do(t, "GET", "/v1/favorites", "garbage", "")
	expectStatus(t, resp, 401)
}

func TestSession_FromCookie(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest("GET", "/v1/breeds", nil)
	req.AddCookie(&http.Cookie{Name: handler.DefaultCookieName, Value: env.token(t, "ada@example.com")})
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, 200)
	if got := env.catalog.token(); got != upstreamToken {
		t.Errorf("expected upstream token to reach the catalog, got %q", got)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/v1/auth/logout", env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 204)
	if !strings.Contains(resp.Header.Get("Set-Cookie"), handler.DefaultCookieName+"=;") {
		t.Errorf("expected cookie to be cleared, got %q", resp.Header.Get("Set-Cookie"))
	}
}

func TestUpstreamUnauthorized_MapsTo401(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.catalog.breedsErr = fmt.Errorf("%w: upstream rejected the session", domain.ErrUnauthorized)
	})
	resp := env.do(t, "GET", "/v1/breeds", env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 401)
}

// ---- Geo ----

func TestBounds_NewYork(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/v1/geo/bounds?lat=40.7128&lon=-74.0060&miles=10", "", "")
	expectStatus(t, resp, 200)
	if cc := resp.Header.Get("Cache-Control"); !strings.HasPrefix(cc, "public") {
		t.Errorf("expected public caching, got %q", cc)
	}

	var box domain.BoundingBox
	decode(t, resp, &box)
	if !(box.TopLeft.Lat > 40.7128 && box.BottomRight.Lat < 40.7128) {
		t.Errorf("latitudes do not bracket the centre: %+v", box)
	}
	if !(box.TopLeft.Lon < -74.006 && box.BottomRight.Lon > -74.006) {
		t.Errorf("longitudes do not bracket the centre: %+v", box)
	}
}

func TestBounds_BadInput(t *testing.T) {
	env := newTestEnv(t)
	for _, target := range []string{
		"/v1/geo/bounds",
		"/v1/geo/bounds?lat=40&lon=abc",
		"/v1/geo/bounds?lat=40&lon=-74&miles=0",
		"/v1/geo/bounds?lat=95&lon=-74",
	} {
		resp := env.do(t, "GET", target, "", "")
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", target, resp.StatusCode)
		}
	}
}

func TestBounds_ETagNotModified(t *testing.T) {
	env := newTestEnv(t)
	first := env.do(t, "GET", "/v1/geo/bounds?lat=40&lon=-74", "", "")
	expectStatus(t, first, 200)
	etag := first.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag")
	}

	req := httptest.NewRequest("GET", "/v1/geo/bounds?lat=40&lon=-74", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, 304)
}

func TestNearbyDogs_NoLocations(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/v1/dogs/nearby?lat=40.7&lon=-74", env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 200)

	var body struct {
		Results domain.SearchPage `json:"results"`
		Nearby  domain.Nearby     `json:"nearby"`
	}
	decode(t, resp, &body)
	if len(body.Results.Dogs) != 0 || len(body.Nearby.ZipCodes) != 0 {
		t.Errorf("expected empty result, got %+v", body)
	}
	if len(env.catalog.searches) != 0 {
		t.Error("no dog search should run without nearby ZIP codes")
	}
}

func TestNearbyDogs_SearchesZipCodes(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.catalog.nearbyFn = func(q domain.LocationQuery) (*domain.LocationResult, error) {
			if q.GeoBoundingBox == nil {
				return nil, errors.New("missing bounding box")
			}
			return &domain.LocationResult{Results: []domain.Location{e.catalog.locations["10001"]}, Total: 1}, nil
		}
		e.catalog.searchFn = func(q domain.SearchQuery) (*domain.SearchResult, error) {
			return &domain.SearchResult{ResultIDs: []string{"d1"}, Total: 1}, nil
		}
	})
	resp := env.do(t, "GET", "/v1/dogs/nearby?lat=40.75&lon=-73.99&miles=5&breeds=Beagle", env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 200)

	if len(env.catalog.searches) != 1 {
		t.Fatalf("expected one search, got %d", len(env.catalog.searches))
	}
	q := env.catalog.searches[0]
	if len(q.ZipCodes) != 1 || q.ZipCodes[0] != "10001" {
		t.Errorf("expected nearby ZIP codes in the search, got %v", q.ZipCodes)
	}
	if len(q.Breeds) != 1 || q.Breeds[0] != "Beagle" {
		t.Errorf("expected breed filter to be kept, got %v", q.Breeds)
	}
}

// ---- Dogs ----

func TestSearchDogs_JoinsLocations(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.catalog.searchFn = func(q domain.SearchQuery) (*domain.SearchResult, error) {
			return &domain.SearchResult{ResultIDs: []string{"d1", "d2"}, Total: 45}, nil
		}
	})
	resp := env.do(t, "GET", "/v1/dogs/search?breeds=Beagle,Boxer&sort=age:desc", env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 200)

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, "from=20") {
		t.Errorf("unexpected Link header %q", link)
	}

	var page domain.SearchPage
	decode(t, resp, &page)
	if len(page.Dogs) != 2 || page.Dogs[0].ID != "d1" || page.Dogs[1].ID != "d2" {
		t.Fatalf("unexpected dogs %+v", page.Dogs)
	}
	if page.Dogs[0].Location == nil || page.Dogs[0].Location.City != "New York" {
		t.Errorf("expected d1 to be joined to New York, got %+v", page.Dogs[0].Location)
	}
	if page.Dogs[1].Location != nil {
		t.Errorf("expected no location for unknown ZIP code, got %+v", page.Dogs[1].Location)
	}
	if page.Page.TotalPages != 3 || page.Page.CurrentPage != 1 {
		t.Errorf("unexpected page info %+v", page.Page)
	}

	q := env.catalog.searches[0]
	if q.Sort != (domain.Sort{Field: domain.SortByAge, Order: domain.Desc}) {
		t.Errorf("unexpected sort %+v", q.Sort)
	}
	if len(q.Breeds) != 2 {
		t.Errorf("expected two breeds, got %v", q.Breeds)
	}
	if env.catalog.token() != upstreamToken {
		t.Error("expected upstream token on catalog calls")
	}
}

func TestSearchDogs_PageParameter(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/v1/dogs/search?page=3&size=10", env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 200)

	q := env.catalog.searches[0]
	if q.From != 20 || q.Size != 10 {
		t.Errorf("expected from=20 size=10, got from=%d size=%d", q.From, q.Size)
	}
}

func TestSearchDogs_BadFilters(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ada@example.com")
	for _, target := range []string{
		"/v1/dogs/search?sort=color",
		"/v1/dogs/search?ageMin=5&ageMax=2",
		"/v1/dogs/search?ageMin=old",
		"/v1/dogs/search?zipCodes=123",
		"/v1/dogs/search?page=0",
	} {
		resp := env.do(t, "GET", target, token, "")
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", target, resp.StatusCode)
		}
	}
}

func TestGetDogs(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/v1/dogs?ids=d2,d1", env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 200)

	var dogs []domain.Dog
	decode(t, resp, &dogs)
	if len(dogs) != 2 || dogs[0].ID != "d2" {
		t.Errorf("expected dogs in request order, got %+v", dogs)
	}
}

func TestGetDogs_TooMany(t *testing.T) {
	env := newTestEnv(t)
	ids := make([]string, 101)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%d", i)
	}
	resp := env.do(t, "GET", "/v1/dogs?ids="+strings.Join(ids, ","), env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 400)
}

func TestPostDogs_Deprecated(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/v1/dogs", env.token(t, "ada@example.com"), `["d1"]`)
	expectStatus(t, resp, 200)
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header")
	}
}

// ---- Favorites ----

func TestToggleFavorite(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ada@example.com")

	toggle := func(id string) (bool, []string) {
		resp := env.do(t, "POST", "/v1/favorites/"+id+"/toggle", token, "")
		expectStatus(t, resp, 200)
		var body struct {
			Favorite bool     `json:"favorite"`
			IDs      []string `json:"ids"`
		}
		decode(t, resp, &body)
		return body.Favorite, body.IDs
	}

	if fav, ids := toggle("d1"); !fav || len(ids) != 1 {
		t.Fatalf("expected d1 added, got %v %v", fav, ids)
	}
	toggle("d2")
	if fav, ids := toggle("d1"); fav || len(ids) != 1 || ids[0] != "d2" {
		t.Fatalf("expected d1 removed leaving [d2], got %v %v", fav, ids)
	}

	resp := env.do(t, "GET", "/v1/favorites", token, "")
	expectStatus(t, resp, 200)
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("favorites must not be cached, got %q", cc)
	}
	var body struct {
		IDs []string `json:"ids"`
	}
	decode(t, resp, &body)
	if len(body.IDs) != 1 || body.IDs[0] != "d2" {
		t.Errorf("expected [d2], got %v", body.IDs)
	}
}

func TestFavorites_PerOwner(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/v1/favorites/d1/toggle", env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 200)

	resp = env.do(t, "GET", "/v1/favorites", env.token(t, "bob@example.com"), "")
	expectStatus(t, resp, 200)
	var body struct {
		IDs []string `json:"ids"`
	}
	decode(t, resp, &body)
	if len(body.IDs) != 0 {
		t.Errorf("expected no favorites for another owner, got %v", body.IDs)
	}
}

func TestFavoriteDogs(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ada@example.com")
	env.do(t, "POST", "/v1/favorites/d3/toggle", token, "")
	env.do(t, "POST", "/v1/favorites/d1/toggle", token, "")

	resp := env.do(t, "GET", "/v1/favorites/dogs", token, "")
	expectStatus(t, resp, 200)
	var dogs []domain.Dog
	decode(t, resp, &dogs)
	if len(dogs) != 2 || dogs[0].ID != "d3" || dogs[1].ID != "d1" {
		t.Errorf("expected favorites in insertion order, got %+v", dogs)
	}
}

// ---- Match ----

func TestMatch_NoFavorites(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/v1/match", env.token(t, "ada@example.com"), "")
	expectStatus(t, resp, 400)
}

func TestMatch_Sync(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ada@example.com")
	env.do(t, "POST", "/v1/favorites/d1/toggle", token, "")
	env.do(t, "POST", "/v1/favorites/d2/toggle", token, "")

	resp := env.do(t, "POST", "/v1/match", token, "")
	expectStatus(t, resp, 200)
	var m struct {
		Match string      `json:"match"`
		Dog   *domain.Dog `json:"dog"`
	}
	decode(t, resp, &m)
	if m.Match != "d2" || m.Dog == nil || m.Dog.Name != "Bella" {
		t.Errorf("unexpected match %+v", m)
	}
}

func TestMatch_AsyncDisabled(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ada@example.com")
	env.do(t, "POST", "/v1/favorites/d1/toggle", token, "")

	resp := env.do(t, "POST", "/v1/match?async=true", token, "")
	expectStatus(t, resp, 503)
}

func TestMatch_AsyncScheduled(t *testing.T) {
	sched := &fakeScheduler{}
	env := newTestEnv(t, func(e *testEnv) { e.deps.Scheduler = sched })
	token := env.token(t, "Ada@Example.com")
	env.do(t, "POST", "/v1/favorites/d1/toggle", token, "")

	resp := env.do(t, "POST", "/v1/match?async=true", token, "")
	expectStatus(t, resp, 202)
	var body struct {
		RunID string `json:"run_id"`
	}
	decode(t, resp, &body)
	if body.RunID != "match-run-1" {
		t.Errorf("unexpected run id %q", body.RunID)
	}
	if sched.owner != "ada@example.com" || sched.token != upstreamToken {
		t.Errorf("scheduler got owner=%q token=%q", sched.owner, sched.token)
	}
}

// ---- GraphQL ----

func TestGraphQL_ToggleAndList(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "ada@example.com")

	resp := env.do(t, "POST", "/graphql", token, `{"query":"mutation { toggleFavorite(id: \"d1\") { id favorite ids } }"}`)
	expectStatus(t, resp, 200)
	var toggled struct {
		Data struct {
			ToggleFavorite struct {
				Favorite bool     `json:"favorite"`
				IDs      []string `json:"ids"`
			} `json:"toggleFavorite"`
		} `json:"data"`
	}
	decode(t, resp, &toggled)
	if !toggled.Data.ToggleFavorite.Favorite {
		t.Errorf("expected d1 to be added, got %+v", toggled)
	}

	resp = env.do(t, "POST", "/graphql", token, `{"query":"{ favorites favoriteDogs { id name } bounds(lat: 40.7, lon: -74) { top_left { lat } } }"}`)
	expectStatus(t, resp, 200)
	var listed struct {
		Data struct {
			Favorites    []string `json:"favorites"`
			FavoriteDogs []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"favoriteDogs"`
			Bounds struct {
				TopLeft struct {
					Lat float64 `json:"lat"`
				} `json:"top_left"`
			} `json:"bounds"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	decode(t, resp, &listed)
	if len(listed.Errors) != 0 {
		t.Fatalf("unexpected errors %v", listed.Errors)
	}
	if len(listed.Data.Favorites) != 1 || listed.Data.FavoriteDogs[0].Name != "Rex" {
		t.Errorf("unexpected favorites %+v", listed.Data)
	}
	if listed.Data.Bounds.TopLeft.Lat <= 40.7 {
		t.Errorf("unexpected bounds %+v", listed.Data.Bounds)
	}
}

func TestGraphQL_RequiresSession(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/graphql", "", `{"query":"{ favorites }"}`)
	expectStatus(t, resp, 401)
}
