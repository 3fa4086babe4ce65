package token

import (
	"context"

	"github.com/jrsteele09/go-oidc-grants/clients"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/pkg/errors"
)

// ClientCredentialsProvider builds a principal for the client itself. There is no end user.
type ClientCredentialsProvider struct {
	svcs Services
}

var _ Provider = (*ClientCredentialsProvider)(nil)

func NewClientCredentialsProvider(svcs Services) *ClientCredentialsProvider {
	return &ClientCredentialsProvider{svcs: svcs}
}

func (cp *ClientCredentialsProvider) Principal(ctx context.Context, req *oidc.Request) (*principal.Principal, error) {
	app, err := cp.svcs.Applications.FindByClientID(ctx, req.ClientID)
	if errors.Is(err, clients.ErrNotFound) {
		return nil, errors.Wrapf(ErrApplicationNotFound, "[ClientCredentialsProvider.Principal] client %s", req.ClientID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[ClientCredentialsProvider.Principal] find application")
	}

	// sub always reaches both tokens; name joins the identity token only with the profile scope.
	nameDests := []principal.Destination{principal.AccessToken}
	if req.HasScope(oidc.ScopeProfile) {
		nameDests = append(nameDests, principal.IdentityToken)
	}
	p := principal.New(
		principal.NewClaim(oidc.ClaimSubject, req.ClientID, principal.AccessToken, principal.IdentityToken),
		principal.NewClaim(oidc.ClaimName, app.GetDisplayName(), nameDests...),
	)

	if err := setScopesAndResources(ctx, cp.svcs, p, req.Scopes()); err != nil {
		return nil, err
	}
	return p, nil
}
