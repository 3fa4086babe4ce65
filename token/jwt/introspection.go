package jwt

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oidc-grants/internal/utils"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
)

// ErrInvalidToken is returned for bearer tokens that fail validation.
var ErrInvalidToken = errors.New("invalid token")

// TokenIntrospection represents the metadata information of an OAuth 2.0 token (RFC 7662).
// The 'active' field indicates the state of the token - if it's false, other fields are not populated.
type TokenIntrospection struct {
	Active    bool     `json:"active"`               // True or false - Is the token valid
	Scope     string   `json:"scope,omitempty"`      // Space separated scopes granted to the token
	ClientID  string   `json:"client_id,omitempty"`  // The client the token was issued to
	TokenType string   `json:"token_type,omitempty"` // access_token or refresh_token
	Aud       []string `json:"aud,omitempty"`        // Resources the token is valid for
	Exp       *int64   `json:"exp,omitempty"`        // Expiration
	Iat       *int64   `json:"iat,omitempty"`        // Issued at time
	Iss       *string  `json:"iss,omitempty"`        // Issuer of the token
	Sub       *string  `json:"sub,omitempty"`        // Subject: the user id, or the client id for client tokens
	Jti       *string  `json:"jti,omitempty"`        // Unique token ID
}

// Inspector validates bearer access tokens and reports on tokens presented for introspection
// or revocation.
type Inspector struct {
	signer      verifier
	issuer      string
	revocations RevocationList
	nowTime     func() time.Time
}

type InspectorOption func(*Inspector)

func WithInspectorNowTime(nowTime func() time.Time) InspectorOption {
	return func(i *Inspector) {
		i.nowTime = nowTime
	}
}

func NewInspector(signer verifier, issuer string, revocations RevocationList, options ...InspectorOption) *Inspector {
	if revocations == nil {
		revocations = NewInMemoryRevocationList()
	}
	i := &Inspector{signer: signer, issuer: issuer, revocations: revocations, nowTime: time.Now}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// ValidateAccessToken verifies raw and rebuilds the principal it was issued for. Every
// non-registered claim is restored with the access token destination.
func (i *Inspector) ValidateAccessToken(ctx context.Context, raw string) (*principal.Principal, error) {
	claims, err := i.verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	if use, _ := claims["token_use"].(string); use != UseAccessToken {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	p := principal.New(principal.NewClaim(oidc.ClaimSubject, sub, principal.AccessToken))
	for name, value := range claims {
		if isReserved(name) {
			continue
		}
		switch v := value.(type) {
		case string:
			p.AddClaims(principal.NewClaim(name, v, principal.AccessToken))
		case []any:
			for _, s := range utils.ToStringSlice(v) {
				p.AddClaims(principal.NewClaim(name, s, principal.AccessToken))
			}
		}
	}
	scope, _ := claims["scope"].(string)
	p.SetScopes(splitScope(scope))
	aud, _ := claims.GetAudience()
	p.SetResources(aud)
	return p, nil
}

// Introspect reports whether raw is an active access or refresh token issued by this server.
func (i *Inspector) Introspect(ctx context.Context, raw string) *TokenIntrospection {
	claims, err := i.verify(ctx, raw)
	if err != nil {
		return &TokenIntrospection{Active: false}
	}
	use, _ := claims["token_use"].(string)
	if use != UseAccessToken && use != UseRefreshToken {
		return &TokenIntrospection{Active: false}
	}

	iss, _ := claims["iss"].(string)
	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	scope, _ := claims["scope"].(string)
	clientID, _ := claims["client_id"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	aud, _ := claims.GetAudience()

	return &TokenIntrospection{
		Active:    true,
		Scope:     scope,
		ClientID:  clientID,
		TokenType: use,
		Aud:       aud,
		Exp:       utils.Ptr(int64(exp)),
		Iat:       utils.Ptr(int64(iat)),
		Iss:       &iss,
		Sub:       &sub,
		Jti:       &jti,
	}
}

// Revoke invalidates an access or refresh token issued to clientID. Unknown or already invalid
// tokens are ignored (RFC 7009).
func (i *Inspector) Revoke(ctx context.Context, raw, clientID string) error {
	claims, err := i.verify(ctx, raw)
	if err != nil {
		return nil
	}
	if owner, _ := claims["client_id"].(string); owner != clientID {
		return nil
	}
	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if jti == "" || err != nil || exp == nil {
		return nil
	}
	_, err = i.revocations.Revoke(ctx, jti, exp.Time)
	return err
}

func (i *Inspector) verify(ctx context.Context, raw string) (jwtlib.MapClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidToken
	}
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, i.signer.GetVerificationKey,
		jwtlib.WithIssuer(i.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(i.nowTime),
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	// Check if token has been revoked
	if jti, _ := claims["jti"].(string); jti != "" {
		revoked, err := i.revocations.IsRevoked(ctx, jti)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

func isReserved(name string) bool {
	return slices.Contains(reservedClaims, name)
}
