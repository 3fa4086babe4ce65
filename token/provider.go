// Package token turns a validated token request into the claims principal that gets signed in.
package token

import (
	"context"
	"slices"

	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/profile"
	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/pkg/errors"
)

// Messages returned to the client with invalid_grant.
const (
	MessageInvalidCredentials  = "The username/password couple is invalid."
	MessageUserNotActive       = "The user is not active."
	MessageTokenNoLongerValid  = "The token is no longer valid."
	MessageUserCannotSignIn    = "The user is no longer allowed to sign in."
	MessageNoGrantType         = "No grant type is specified."
	messageGrantNotSupported   = "The grant type '%s' is not supported."
	messageNoPrincipalForGrant = "No principal could be created for the grant type '%s'."
)

// Reasons recorded on login failure events. They never reach the client.
const (
	ReasonInvalidCredentials = "Invalid credentials."
	ReasonLockedOut          = "User locked out."
	ReasonNotAllowed         = "User is not allowed to sign in."
)

// ErrApplicationNotFound means a request passed client authentication but its application is missing.
var ErrApplicationNotFound = errors.New("application not found")

// InvalidGrantError rejects a token request. Message is safe to show to the client.
type InvalidGrantError struct {
	Message string
}

func NewInvalidGrantError(message string) *InvalidGrantError {
	return &InvalidGrantError{Message: message}
}

func (e *InvalidGrantError) Error() string {
	return "invalid_grant: " + e.Message
}

// Provider builds the principal for one token request.
type Provider interface {
	Principal(ctx context.Context, req *oidc.Request) (*principal.Principal, error)
}

// Authenticator recovers the principal stored in an authorization code, device code or refresh token.
type Authenticator interface {
	Authenticate(ctx context.Context, req *oidc.Request) (*principal.Principal, error)
}

// mergeProfileClaims adds the profile claims of user to p. A claim p already holds with the
// same type and value is not added twice.
func mergeProfileClaims(ctx context.Context, svc profile.Service, user users.User, p *principal.Principal) error {
	claims, err := svc.Claims(ctx, user, p)
	if err != nil {
		return errors.Wrap(err, "[token.mergeProfileClaims] profile claims")
	}
	for _, c := range claims {
		if slices.Contains(p.FindAll(c.Type), c.Value) {
			continue
		}
		p.AddClaims(c)
	}
	return nil
}
