package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// DefaultTTL is how long a session token stays valid.
const DefaultTTL = time.Hour

const issuer = "pawmatch"

// Principal is the logged-in user behind a session token.
type Principal struct {
	Name  string
	Email string
	// UpstreamToken is the dog adoption API access token of the session.
	UpstreamToken string
}

// Owner returns the key favorites are stored under.
func (p *Principal) Owner() string {
	return domain.NormalizeOwner(p.Email)
}

// Session is an issued session token.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Principal *Principal `json:"-"`
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

type claims struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Upstream string `json:"upt"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A non-positive ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for p.
func (i *Issuer) Issue(p Principal) (*Session, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	c := claims{
		Name:     p.Name,
		Email:    domain.NormalizeOwner(p.Email),
		Upstream: p.UpstreamToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   domain.OwnerKey(p.Email),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	p.Email = c.Email
	return &Session{Token: signed, ExpiresAt: exp, Principal: &p}, nil
}

// Parse validates tokenStr and returns its principal. Every failure wraps
// domain.ErrUnauthorized.
func (i *Issuer) Parse(tokenStr string) (*Principal, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: missing session token", domain.ErrUnauthorized)
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(i.now))
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	c, _ := tok.Claims.(*claims)
	if c == nil || c.Email == "" || c.Upstream == "" {
		return nil, fmt.Errorf("%w: invalid claims", domain.ErrUnauthorized)
	}
	return &Principal{Name: c.Name, Email: c.Email, UpstreamToken: c.Upstream}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}
