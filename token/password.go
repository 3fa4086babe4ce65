package token

import (
	"context"

	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/pkg/errors"
)

// PasswordProvider handles the resource owner password credentials grant.
type PasswordProvider struct {
	svcs Services
}

var _ Provider = (*PasswordProvider)(nil)

func NewPasswordProvider(svcs Services) *PasswordProvider {
	return &PasswordProvider{svcs: svcs}
}

// Principal checks the username and password with lockout enabled. Every failure gives the client
// the same message. The precise reason is only recorded on the login failure event.
func (pp *PasswordProvider) Principal(ctx context.Context, req *oidc.Request) (*principal.Principal, error) {
	user, err := pp.svcs.Users.FindByName(ctx, req.Username)
	if errors.Is(err, users.ErrNotFound) {
		pp.svcs.Events.Raise(ctx, events.UserLoginFailure(req.Username, ReasonInvalidCredentials, false, req.ClientID))
		return nil, NewInvalidGrantError(MessageInvalidCredentials)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PasswordProvider.Principal] find user")
	}

	result, err := pp.svcs.SignIn.CheckPasswordSignIn(ctx, user, req.Password, true)
	if err != nil {
		return nil, errors.Wrap(err, "[PasswordProvider.Principal] check password")
	}
	if !result.Succeeded() {
		pp.svcs.Events.Raise(ctx, events.UserLoginFailure(req.Username, FailureReason(result), false, req.ClientID))
		return nil, NewInvalidGrantError(MessageInvalidCredentials)
	}

	p, err := pp.svcs.SignIn.CreateUserPrincipal(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[PasswordProvider.Principal] create principal")
	}

	active, err := pp.svcs.Profile.IsActive(ctx, user, p)
	if err != nil {
		return nil, errors.Wrap(err, "[PasswordProvider.Principal] check active")
	}
	if !active {
		return nil, NewInvalidGrantError(MessageUserNotActive)
	}

	if err := setScopesAndResources(ctx, pp.svcs, p, req.Scopes()); err != nil {
		return nil, err
	}
	if err := mergeProfileClaims(ctx, pp.svcs.Profile, user, p); err != nil {
		return nil, err
	}

	pp.svcs.Events.Raise(ctx, events.UserLoginSuccess(user.GetUserName(), user.GetID(), user.GetDisplayName(), false, req.ClientID))
	return p, nil
}

// FailureReason is the login failure event reason for a failed sign in.
func FailureReason(result users.SignInResult) string {
	switch {
	case result.IsLockedOut():
		return ReasonLockedOut
	case result.IsNotAllowed():
		return ReasonNotAllowed
	default:
		return ReasonInvalidCredentials
	}
}

func setScopesAndResources(ctx context.Context, svcs Services, p *principal.Principal, scopes []string) error {
	p.SetScopes(scopes)
	resources, err := svcs.Scopes.ListResources(ctx, scopes)
	if err != nil {
		return errors.Wrap(err, "[token.setScopesAndResources] list resources")
	}
	p.SetResources(resources)
	return nil
}
