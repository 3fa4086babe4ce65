// Package profile enriches a principal with host-defined claims and decides whether a user is active.
package profile

import (
	"context"

	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/users"
)

// Service is consulted by every grant that resolves an end user.
type Service interface {
	// Claims returns the additional claims to merge into p for user.
	Claims(ctx context.Context, user users.User, p *principal.Principal) ([]principal.Claim, error)
	// IsActive reports whether user may still be issued tokens.
	IsActive(ctx context.Context, user users.User, p *principal.Principal) (bool, error)
}

// AdditionalClaimsProvider enumerates extra claims for a user.
type AdditionalClaimsProvider interface {
	Claims(ctx context.Context, user users.User) ([]principal.Claim, error)
}

// ClaimFactory builds one claim from a user.
type ClaimFactory func(users.User) principal.Claim

// ClaimFactories is an AdditionalClaimsProvider built from a list of factories.
type ClaimFactories []ClaimFactory

func (f ClaimFactories) Claims(_ context.Context, user users.User) ([]principal.Claim, error) {
	claims := make([]principal.Claim, 0, len(f))
	for _, factory := range f {
		claims = append(claims, factory(user))
	}
	return claims, nil
}

// NoAdditionalClaims is the provider used when the host configures none.
var NoAdditionalClaims AdditionalClaimsProvider = ClaimFactories(nil)

// DefaultService returns the provider's claims and treats every user as active unless the
// user implements users.Activatable.
type DefaultService struct {
	provider AdditionalClaimsProvider
}

var _ Service = (*DefaultService)(nil)

func NewDefaultService(provider AdditionalClaimsProvider) *DefaultService {
	if provider == nil {
		provider = NoAdditionalClaims
	}
	return &DefaultService{provider: provider}
}

func (s *DefaultService) Claims(ctx context.Context, user users.User, _ *principal.Principal) ([]principal.Claim, error) {
	return s.provider.Claims(ctx, user)
}

func (s *DefaultService) IsActive(_ context.Context, user users.User, _ *principal.Principal) (bool, error) {
	if a, ok := user.(users.Activatable); ok {
		return a.IsActive(), nil
	}
	return true, nil
}
