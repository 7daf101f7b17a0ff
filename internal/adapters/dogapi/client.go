// Package dogapi is the client for the upstream dog adoption API.
package dogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

const (
	// DefaultBaseURL is the public dog adoption API.
	DefaultBaseURL = "https://frontend-take-home-service.fetch.com"
	// TokenCookie carries the upstream access token.
	TokenCookie = "fetch-access-token"
	// MaxIDs is the upstream limit for ID and ZIP code lookups.
	MaxIDs = 100

	maxErrorBody = 512
)

type tokenKey struct{}

// WithToken stores the upstream access token for calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the upstream token stored by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey{}).(string)
	return t, ok && t != ""
}

// Client implements ports.DogCatalog over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a Client for baseURL. A zero timeout disables the client
// timeout and leaves deadlines to the context.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q: scheme must be http or https", baseURL)
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &instrumentedTransport{next: http.DefaultTransport},
		},
	}, nil
}

// Login starts an upstream session and returns the access token.
func (c *Client) Login(ctx context.Context, name, email string) (string, error) {
	body := map[string]string{"name": name, "email": email}
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, false)
	if err != nil {
		return "", err
	}
	defer drain(resp)

	for _, ck := range resp.Cookies() {
		if ck.Name == TokenCookie && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", &domain.UpstreamError{Endpoint: "/auth/login", Status: resp.StatusCode, Body: "no access token in response"}
}

// Logout ends the upstream session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, true)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// Breeds lists every dog breed.
func (c *Client) Breeds(ctx context.Context) ([]string, error) {
	var breeds []string
	if err := c.getJSON(ctx, http.MethodGet, "/dogs/breeds", nil, nil, &breeds); err != nil {
		return nil, err
	}
	return breeds, nil
}

// SearchDogs runs a dog search and returns one page of IDs.
func (c *Client) SearchDogs(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	var res domain.SearchResult
	if err := c.getJSON(ctx, http.MethodGet, "/dogs/search", SearchParams(q), nil, &res); err != nil {
		return nil, err
	}
	if res.ResultIDs == nil {
		res.ResultIDs = []string{}
	}
	return &res, nil
}

// SearchParams encodes q the way /dogs/search expects it.
func SearchParams(q domain.SearchQuery) url.Values {
	v := url.Values{}
	for _, b := range q.Breeds {
		v.Add("breeds", b)
	}
	for _, z := range q.ZipCodes {
		v.Add("zipCodes", z)
	}
	if q.AgeMin != nil {
		v.Set("ageMin", strconv.Itoa(*q.AgeMin))
	}
	if q.AgeMax != nil {
		v.Set("ageMax", strconv.Itoa(*q.AgeMax))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.From > 0 {
		v.Set("from", strconv.Itoa(q.From))
	}
	if !q.Sort.IsZero() {
		v.Set("sort", q.Sort.String())
	}
	return v
}

// GetDogs fetches up to MaxIDs dogs by ID.
func (c *Client) GetDogs(ctx context.Context, ids []string) ([]domain.Dog, error) {
	if len(ids) == 0 {
		return []domain.Dog{}, nil
	}
	if len(ids) > MaxIDs {
		return nil, domain.InvalidArgument("at most %d dog ids per request, got %d", MaxIDs, len(ids))
	}
	var dogs []domain.Dog
	if err := c.getJSON(ctx, http.MethodPost, "/dogs", nil, ids, &dogs); err != nil {
		return nil, err
	}
	return dogs, nil
}

// Match asks the upstream to pick one of ids.
func (c *Client) Match(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", domain.InvalidArgument("match needs at least one dog id")
	}
	var res struct {
		Match string `json:"match"`
	}
	if err := c.getJSON(ctx, http.MethodPost, "/dogs/match", nil, ids, &res); err != nil {
		return "", err
	}
	return res.Match, nil
}

// GetLocations fetches up to MaxIDs locations. Unknown ZIP codes come
// back as null and are dropped.
func (c *Client) GetLocations(ctx context.Context, zipCodes []string) ([]domain.Location, error) {
	if len(zipCodes) == 0 {
		return []domain.Location{}, nil
	}
	if len(zipCodes) > MaxIDs {
		return nil, domain.InvalidArgument("at most %d ZIP codes per request, got %d", MaxIDs, len(zipCodes))
	}
	var raw []*domain.Location
	if err := c.getJSON(ctx, http.MethodPost, "/locations", nil, zipCodes, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Location, 0, len(raw))
	for _, loc := range raw {
		if loc != nil {
			out = append(out, *loc)
		}
	}
	return out, nil
}

// SearchLocations searches locations by city, state or bounding box.
func (c *Client) SearchLocations(ctx context.Context, q domain.LocationQuery) (*domain.LocationResult, error) {
	var res domain.LocationResult
	if err := c.getJSON(ctx, http.MethodPost, "/locations/search", nil, q, &res); err != nil {
		return nil, err
	}
	if res.Results == nil {
		res.Results = []domain.Location{}
	}
	return &res, nil
}

func (c *Client) getJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.do(ctx, method, path, query, body, true)
	if err != nil {
		return err
	}
	defer drain(resp)
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// do sends the request and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, authed bool) (*http.Response, error) {
	u := *c.baseURL
	u.Path += path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, ok := TokenFromContext(ctx)
		if !ok {
			return nil, fmt.Errorf("%w: no upstream session", domain.ErrUnauthorized)
		}
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrUpstream, method, path, err)
	}
	slog.DebugContext(ctx, "upstream call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer drain(resp)
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: upstream %s rejected the session", domain.ErrUnauthorized, path)
	}
	return nil, &domain.UpstreamError{
		Endpoint: path,
		Status:   resp.StatusCode,
		Body:     strings.TrimSpace(string(msg)),
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// CloseIdleConnections closes pooled connections to the upstream.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}
