package token

import (
	"context"

	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/pkg/errors"
)

// CodeExchangeProvider handles the authorization code, device code and refresh token grants.
// The stored principal is re-checked against the identity store before it is reissued.
type CodeExchangeProvider struct {
	svcs Services
}

var _ Provider = (*CodeExchangeProvider)(nil)

func NewCodeExchangeProvider(svcs Services) *CodeExchangeProvider {
	return &CodeExchangeProvider{svcs: svcs}
}

func (cp *CodeExchangeProvider) Principal(ctx context.Context, req *oidc.Request) (*principal.Principal, error) {
	p, err := cp.svcs.Authenticator.Authenticate(ctx, req)
	if err != nil {
		var invalid *InvalidGrantError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, errors.Wrap(err, "[CodeExchangeProvider.Principal] authenticate")
	}

	user, err := cp.svcs.Users.FindByID(ctx, p.Subject())
	if errors.Is(err, users.ErrNotFound) {
		return nil, NewInvalidGrantError(MessageTokenNoLongerValid)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[CodeExchangeProvider.Principal] find user")
	}

	ok, err := cp.svcs.SignIn.CanSignIn(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[CodeExchangeProvider.Principal] can sign in")
	}
	if !ok {
		return nil, NewInvalidGrantError(MessageUserCannotSignIn)
	}

	if err := mergeProfileClaims(ctx, cp.svcs.Profile, user, p); err != nil {
		return nil, err
	}
	return p, nil
}
