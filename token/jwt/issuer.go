package jwt

import (
	"fmt"
	"slices"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-grants/internal/utils"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/token/keys"
)

// Values of the token_use claim.
const (
	UseAccessToken       = "access_token"
	UseAuthorizationCode = "authorization_code"
	UseRefreshToken      = "refresh_token"
)

// Claim names the issuer sets itself. Principal claims with these names are not copied.
var reservedClaims = []string{"iss", "sub", "aud", "exp", "iat", "nbf", "jti", "azp", "nonce", "client_id", "scope", "token_use"}

// Config holds the issuer identity and the default token lifetimes.
type Config struct {
	Issuer             string
	AccessTokenExpiry  time.Duration
	IDTokenExpiry      time.Duration
	RefreshTokenExpiry time.Duration
	CodeExpiry         time.Duration
}

// Tokens is the output of Issuer.Issue.
type Tokens struct {
	AccessToken  string
	ExpiresIn    time.Duration
	IDToken      *string
	RefreshToken *string
	Scope        string
}

// Response converts the tokens into the token endpoint response body.
func (t *Tokens) Response() *oidc.TokenResponse {
	return &oidc.TokenResponse{
		AccessToken:  t.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(t.ExpiresIn.Seconds()),
		IDToken:      t.IDToken,
		RefreshToken: t.RefreshToken,
		Scope:        t.Scope,
	}
}

// CodeRequest carries the authorization request values bound into an authorization code.
type CodeRequest struct {
	ClientID            string
	RedirectURI         string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// storedClaim is a principal claim serialized into a code or refresh token.
type storedClaim struct {
	Type         string                  `json:"type"`
	Value        string                  `json:"value"`
	Destinations []principal.Destination `json:"destinations,omitempty"`
}

// grantClaims is the payload of authorization codes and refresh tokens. It carries the whole
// principal so it can be rebuilt at the token endpoint.
type grantClaims struct {
	jwtlib.RegisteredClaims
	Use                 string        `json:"token_use"`
	ClientID            string        `json:"client_id"`
	RedirectURI         string        `json:"redirect_uri,omitempty"`
	Nonce               string        `json:"nonce,omitempty"`
	CodeChallenge       string        `json:"code_challenge,omitempty"`
	CodeChallengeMethod string        `json:"code_challenge_method,omitempty"`
	Scope               string        `json:"scope,omitempty"`
	Resources           []string      `json:"resources,omitempty"`
	AuthorizationID     string        `json:"authorization_id,omitempty"`
	Claims              []storedClaim `json:"claims"`
}

// Issuer signs the tokens for a signed-in principal.
type Issuer struct {
	signer  keys.Signer
	config  Config
	nowTime func() time.Time
}

type IssuerOption func(*Issuer)

func WithIssuerNowTime(nowTime func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowTime
	}
}

func NewIssuer(signer keys.Signer, config Config, options ...IssuerOption) *Issuer {
	if config.AccessTokenExpiry == 0 {
		config.AccessTokenExpiry = time.Hour
	}
	if config.IDTokenExpiry == 0 {
		config.IDTokenExpiry = time.Hour
	}
	if config.RefreshTokenExpiry == 0 {
		config.RefreshTokenExpiry = 7 * 24 * time.Hour
	}
	if config.CodeExpiry == 0 {
		config.CodeExpiry = 5 * time.Minute
	}
	i := &Issuer{signer: signer, config: config, nowTime: time.Now}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Issue creates the access token, plus an id token when openid was granted and a refresh token
// when offline_access was granted. The principal's access token lifetime overrides the default.
func (i *Issuer) Issue(p *principal.Principal, clientID string) (*Tokens, error) {
	now := i.nowTime()
	expiry := i.config.AccessTokenExpiry
	if lifetime, ok := p.AccessTokenLifetime(); ok {
		expiry = lifetime
	}

	accessToken, err := i.signer.Sign(i.accessTokenClaims(p, clientID, now, expiry))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	tokens := &Tokens{
		AccessToken: accessToken,
		ExpiresIn:   expiry,
		Scope:       oidc.JoinScopes(p.Scopes()),
	}

	if p.HasScope(oidc.ScopeOpenID) {
		idToken, err := i.signer.Sign(i.idTokenClaims(p, clientID, now))
		if err != nil {
			return nil, fmt.Errorf("failed to sign id token: %w", err)
		}
		tokens.IDToken = utils.Ptr(idToken)
	}

	if p.HasScope(oidc.ScopeOfflineAccess) {
		refresh := i.grantClaims(p, UseRefreshToken, clientID, now, i.config.RefreshTokenExpiry)
		refreshToken, err := i.signer.Sign(refresh)
		if err != nil {
			return nil, fmt.Errorf("failed to sign refresh token: %w", err)
		}
		tokens.RefreshToken = utils.Ptr(refreshToken)
	}
	return tokens, nil
}

// IssueCode creates an authorization code bound to the client, redirect uri and PKCE challenge.
func (i *Issuer) IssueCode(p *principal.Principal, req CodeRequest) (string, error) {
	claims := i.grantClaims(p, UseAuthorizationCode, req.ClientID, i.nowTime(), i.config.CodeExpiry)
	claims.RedirectURI = req.RedirectURI
	claims.Nonce = req.Nonce
	claims.CodeChallenge = req.CodeChallenge
	claims.CodeChallengeMethod = req.CodeChallengeMethod

	code, err := i.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign authorization code: %w", err)
	}
	return code, nil
}

func (i *Issuer) accessTokenClaims(p *principal.Principal, clientID string, now time.Time, expiry time.Duration) jwtlib.MapClaims {
	audience := p.Resources()
	if len(audience) == 0 {
		audience = []string{clientID}
	}
	claims := jwtlib.MapClaims{
		"iss":       i.config.Issuer,
		"sub":       p.Subject(),
		"aud":       audience,
		"client_id": clientID,
		"scope":     oidc.JoinScopes(p.Scopes()),
		"token_use": UseAccessToken,
		"iat":       now.Unix(),
		"exp":       now.Add(expiry).Unix(),
		"jti":       uuid.New().String(),
	}
	copyClaims(claims, p.ClaimsFor(principal.AccessToken))
	return claims
}

func (i *Issuer) idTokenClaims(p *principal.Principal, clientID string, now time.Time) jwtlib.MapClaims {
	claims := jwtlib.MapClaims{
		"iss": i.config.Issuer,
		"sub": p.Subject(),
		"aud": clientID,
		"azp": clientID,
		"iat": now.Unix(),
		"exp": now.Add(i.config.IDTokenExpiry).Unix(),
		"jti": uuid.New().String(),
	}
	if nonce := p.Property(principal.PropertyNonce); nonce != "" {
		claims["nonce"] = nonce
	}
	copyClaims(claims, p.ClaimsFor(principal.IdentityToken))
	return claims
}

func (i *Issuer) grantClaims(p *principal.Principal, use, clientID string, now time.Time, expiry time.Duration) *grantClaims {
	// Codes and refresh tokens are readable by the client, so claims bound for no token stay out.
	all := p.Claims()
	stored := make([]storedClaim, 0, len(all))
	for _, c := range all {
		if len(c.Destinations) == 0 {
			continue
		}
		stored = append(stored, storedClaim{Type: c.Type, Value: c.Value, Destinations: c.Destinations})
	}
	return &grantClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    i.config.Issuer,
			Subject:   p.Subject(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(expiry)),
			ID:        uuid.New().String(),
		},
		Use:             use,
		ClientID:        clientID,
		Scope:           oidc.JoinScopes(p.Scopes()),
		Resources:       p.Resources(),
		AuthorizationID: p.AuthorizationID(),
		Claims:          stored,
	}
}

// copyClaims adds principal claims to a token payload. A claim type seen twice becomes a list.
func copyClaims(dst jwtlib.MapClaims, claims []principal.Claim) {
	for _, c := range claims {
		if slices.Contains(reservedClaims, c.Type) {
			continue
		}
		switch existing := dst[c.Type].(type) {
		case nil:
			dst[c.Type] = c.Value
		case string:
			dst[c.Type] = []string{existing, c.Value}
		case []string:
			dst[c.Type] = append(existing, c.Value)
		}
	}
}

// restorePrincipal rebuilds the principal carried by a code or refresh token.
func restorePrincipal(gc *grantClaims) *principal.Principal {
	p := principal.New()
	for _, c := range gc.Claims {
		p.AddClaims(principal.NewClaim(c.Type, c.Value, c.Destinations...))
	}
	p.SetScopes(splitScope(gc.Scope))
	p.SetResources(gc.Resources)
	p.SetAuthorizationID(gc.AuthorizationID)
	if gc.Nonce != "" {
		p.SetProperty(principal.PropertyNonce, gc.Nonce)
	}
	return p
}

func splitScope(scope string) []string {
	return (&oidc.Request{Scope: scope}).Scopes()
}
