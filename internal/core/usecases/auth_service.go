package usecases

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/samirrijal/pawmatch/internal/auth"
	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/ports"
)

// AuthService logs users in against the upstream and issues session
// tokens carrying the upstream access token.
type AuthService struct {
	catalog ports.DogCatalog
	issuer  *auth.Issuer
}

// NewAuthService creates a new AuthService.
func NewAuthService(catalog ports.DogCatalog, issuer *auth.Issuer) *AuthService {
	return &AuthService{catalog: catalog, issuer: issuer}
}

// Login validates the form, logs in upstream and returns a session.
func (s *AuthService) Login(ctx context.Context, name, email string) (*auth.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidArgument("name is required")
	}
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, domain.InvalidArgument("%q is not a valid e-mail address", email)
	}

	token, err := s.catalog.Login(ctx, name, email)
	if err != nil {
		return nil, fmt.Errorf("upstream login: %w", err)
	}
	return s.issuer.Issue(auth.Principal{Name: name, Email: email, UpstreamToken: token})
}

// Logout ends the upstream session whose token is in ctx.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.catalog.Logout(ctx); err != nil {
		return fmt.Errorf("upstream logout: %w", err)
	}
	return nil
}

// Authenticate resolves a session token to its principal.
func (s *AuthService) Authenticate(token string) (*auth.Principal, error) {
	return s.issuer.Parse(token)
}
