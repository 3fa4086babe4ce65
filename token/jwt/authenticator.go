package jwt

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oidc-grants/authorizations"
	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/token"
	"github.com/pkg/errors"
)

const (
	messageInvalidCode        = "The specified authorization code is invalid."
	messageCodeRedeemed       = "The specified authorization code has already been redeemed."
	messageInvalidRefresh     = "The specified refresh token is invalid."
	messageRefreshRevoked     = "The specified refresh token is no longer valid."
	messageInvalidDeviceCode  = "The specified device code is invalid."
	messageWrongClient        = "The specified token cannot be used by this client application."
	messageRedirectURIChanged = "The specified 'redirect_uri' parameter doesn't match the authorization request."
	messageMissingVerifier    = "The 'code_verifier' parameter is missing."
	messageUnexpectedVerifier = "The 'code_verifier' parameter is not allowed for this authorization code."
	messageInvalidVerifier    = "The specified 'code_verifier' is invalid."
	messageAuthorizationGone  = "The authorization associated with the token is no longer valid."
)

// Authenticator redeems authorization codes and refresh tokens made by Issuer. Each one can be
// redeemed once.
type Authenticator struct {
	signer         verifier
	issuer         string
	revocations    RevocationList
	authorizations authorizations.Repo
	nowTime        func() time.Time
}

var _ token.Authenticator = (*Authenticator)(nil)

type verifier interface {
	GetVerificationKey(t *jwtlib.Token) (any, error)
}

type AuthenticatorOption func(*Authenticator)

func WithAuthenticatorNowTime(nowTime func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		a.nowTime = nowTime
	}
}

// WithAuthorizations rejects codes and refresh tokens whose authorization is missing or no
// longer valid.
func WithAuthorizations(repo authorizations.Repo) AuthenticatorOption {
	return func(a *Authenticator) {
		a.authorizations = repo
	}
}

func NewAuthenticator(signer verifier, issuer string, revocations RevocationList, options ...AuthenticatorOption) *Authenticator {
	if revocations == nil {
		revocations = NewInMemoryRevocationList()
	}
	a := &Authenticator{signer: signer, issuer: issuer, revocations: revocations, nowTime: time.Now}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *Authenticator) Authenticate(ctx context.Context, req *oidc.Request) (*principal.Principal, error) {
	switch {
	case req.IsAuthorizationCodeGrantType():
		gc, err := a.parse(req.Code, UseAuthorizationCode, req.ClientID, messageInvalidCode)
		if err != nil {
			return nil, err
		}
		if err := checkCodeBinding(gc, req); err != nil {
			return nil, err
		}
		return a.redeem(ctx, gc, messageCodeRedeemed)
	case req.IsRefreshTokenGrantType():
		gc, err := a.parse(req.RefreshToken, UseRefreshToken, req.ClientID, messageInvalidRefresh)
		if err != nil {
			return nil, err
		}
		return a.redeem(ctx, gc, messageRefreshRevoked)
	default:
		// Device codes are never issued here.
		return nil, token.NewInvalidGrantError(messageInvalidDeviceCode)
	}
}

func (a *Authenticator) parse(raw, use, clientID, invalidMessage string) (*grantClaims, error) {
	if raw == "" {
		return nil, token.NewInvalidGrantError(invalidMessage)
	}
	gc := &grantClaims{}
	_, err := jwtlib.ParseWithClaims(raw, gc, a.signer.GetVerificationKey,
		jwtlib.WithIssuer(a.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(a.nowTime),
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodRS256.Alg()}),
	)
	if err != nil || gc.Use != use {
		return nil, token.NewInvalidGrantError(invalidMessage)
	}
	if gc.ClientID != clientID {
		return nil, token.NewInvalidGrantError(messageWrongClient)
	}
	return gc, nil
}

func (a *Authenticator) redeem(ctx context.Context, gc *grantClaims, reusedMessage string) (*principal.Principal, error) {
	if err := a.checkAuthorization(ctx, gc); err != nil {
		return nil, err
	}
	first, err := a.revocations.Revoke(ctx, gc.ID, gc.ExpiresAt.Time)
	if err != nil {
		return nil, errors.Wrap(err, "[Authenticator.redeem] revoke")
	}
	if !first {
		return nil, token.NewInvalidGrantError(reusedMessage)
	}
	return restorePrincipal(gc), nil
}

func (a *Authenticator) checkAuthorization(ctx context.Context, gc *grantClaims) error {
	if a.authorizations == nil || gc.AuthorizationID == "" {
		return nil
	}
	authz, err := a.authorizations.Get(ctx, gc.AuthorizationID)
	if autherrors.IsNotFound(err) {
		return token.NewInvalidGrantError(messageAuthorizationGone)
	}
	if err != nil {
		return errors.Wrap(err, "[Authenticator.checkAuthorization] get authorization")
	}
	if authz.Status != oidc.StatusValid {
		return token.NewInvalidGrantError(messageAuthorizationGone)
	}
	return nil
}

func checkCodeBinding(gc *grantClaims, req *oidc.Request) error {
	if gc.RedirectURI != "" && gc.RedirectURI != req.RedirectURI {
		return token.NewInvalidGrantError(messageRedirectURIChanged)
	}

	switch {
	case gc.CodeChallenge == "" && req.CodeVerifier != "":
		return token.NewInvalidGrantError(messageUnexpectedVerifier)
	case gc.CodeChallenge == "":
		return nil
	case req.CodeVerifier == "":
		return token.NewInvalidGrantError(messageMissingVerifier)
	}

	expected := req.CodeVerifier
	if gc.CodeChallengeMethod == oidc.CodeChallengeMethodS256 {
		sum := sha256.Sum256([]byte(req.CodeVerifier))
		expected = base64.RawURLEncoding.EncodeToString(sum[:])
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(gc.CodeChallenge)) != 1 {
		return token.NewInvalidGrantError(messageInvalidVerifier)
	}
	return nil
}
