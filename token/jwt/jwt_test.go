package jwt_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"
	fakeauthorizationrepo "github.com/jrsteele09/go-oidc-grants/authorizations/repofake"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/token"
	"github.com/jrsteele09/go-oidc-grants/token/jwt"
	"github.com/jrsteele09/go-oidc-grants/token/keys"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://auth.example.com"

type testFixture struct {
	ctx           context.Context
	now           time.Time
	signer        *keys.KeyPairSigner
	revocations   *jwt.InMemoryRevocationList
	issuer        *jwt.Issuer
	authenticator *jwt.Authenticator
	inspector     *jwt.Inspector
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	keyPair, err := keys.GenerateRSAKeyPair("test-key", 2048)
	require.NoError(t, err)

	f := &testFixture{
		ctx:         context.Background(),
		now:         time.Now().Truncate(time.Second),
		signer:      keys.NewKeyPairSigner(keyPair),
		revocations: jwt.NewInMemoryRevocationList(),
	}
	clock := func() time.Time { return f.now }
	f.issuer = jwt.NewIssuer(f.signer, jwt.Config{Issuer: testIssuer}, jwt.WithIssuerNowTime(clock))
	f.authenticator = jwt.NewAuthenticator(f.signer, testIssuer, f.revocations, jwt.WithAuthenticatorNowTime(clock))
	f.inspector = jwt.NewInspector(f.signer, testIssuer, f.revocations, jwt.WithInspectorNowTime(clock))
	return f
}

func userPrincipal(scopes ...string) *principal.Principal {
	p := principal.New(
		principal.NewClaim(oidc.ClaimSubject, "user-1", principal.AccessToken),
		principal.NewClaim(oidc.ClaimName, "alice", principal.AccessToken, principal.IdentityToken),
		principal.NewClaim(oidc.ClaimRole, "admin", principal.AccessToken),
		principal.NewClaim(oidc.ClaimRole, "user", principal.AccessToken),
		principal.NewClaim(oidc.ClaimSecurityStamp, "stamp"),
	)
	p.SetScopes(scopes)
	p.SetResources([]string{"orders-api"})
	p.SetAuthorizationID("authz-1")
	return p
}

func requireInvalidGrant(t *testing.T, err error, message string) {
	t.Helper()
	var invalid *token.InvalidGrantError
	require.True(t, errors.As(err, &invalid), "expected InvalidGrantError, got %v", err)
	require.Equal(t, message, invalid.Message)
}

func TestIssueAccessToken(t *testing.T) {
	f := setupTestFixture(t)

	tokens, err := f.issuer.Issue(userPrincipal("orders.read"), "cli")
	require.NoError(t, err)
	require.Nil(t, tokens.IDToken)
	require.Nil(t, tokens.RefreshToken)
	require.Equal(t, time.Hour, tokens.ExpiresIn)
	require.Equal(t, "orders.read", tokens.Scope)

	p, err := f.inspector.ValidateAccessToken(f.ctx, tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", p.Subject())
	require.Equal(t, []string{"orders.read"}, p.Scopes())
	require.Equal(t, []string{"orders-api"}, p.Resources())
	require.ElementsMatch(t, []string{"admin", "user"}, p.FindAll(oidc.ClaimRole))
	require.Empty(t, p.FindAll(oidc.ClaimSecurityStamp))

	resp := tokens.Response()
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, int64(3600), resp.ExpiresIn)
}

func TestIssueHonoursLifetimeOverride(t *testing.T) {
	f := setupTestFixture(t)
	p := userPrincipal()
	p.SetAccessTokenLifetime(7 * time.Hour)

	tokens, err := f.issuer.Issue(p, "cli")
	require.NoError(t, err)
	require.Equal(t, 7*time.Hour, tokens.ExpiresIn)

	intro := f.inspector.Introspect(f.ctx, tokens.AccessToken)
	require.True(t, intro.Active)
	require.Equal(t, f.now.Add(7*time.Hour).Unix(), *intro.Exp)
	require.Equal(t, "cli", intro.ClientID)
	require.Equal(t, jwt.UseAccessToken, intro.TokenType)
}

func TestIssueIdentityAndRefreshTokens(t *testing.T) {
	f := setupTestFixture(t)
	p := userPrincipal(oidc.ScopeOpenID, oidc.ScopeOfflineAccess)
	p.SetProperty(principal.PropertyNonce, "n-0S6")

	tokens, err := f.issuer.Issue(p, "spa")
	require.NoError(t, err)
	require.NotNil(t, tokens.IDToken)
	require.NotNil(t, tokens.RefreshToken)

	claims := jwtlib.MapClaims{}
	_, err = jwtlib.ParseWithClaims(*tokens.IDToken, claims, f.signer.GetVerificationKey, jwtlib.WithTimeFunc(func() time.Time { return f.now }))
	require.NoError(t, err)
	require.Equal(t, "spa", claims["aud"])
	require.Equal(t, "user-1", claims["sub"])
	require.Equal(t, "alice", claims["name"])
	require.Equal(t, "n-0S6", claims["nonce"])
	require.NotContains(t, claims, oidc.ClaimRole)

	_, err = f.inspector.ValidateAccessToken(f.ctx, *tokens.RefreshToken)
	require.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestAuthorizationCodeRoundTrip(t *testing.T) {
	f := setupTestFixture(t)
	p := userPrincipal(oidc.ScopeOpenID, oidc.ScopeProfile)

	code, err := f.issuer.IssueCode(p, jwt.CodeRequest{ClientID: "spa", RedirectURI: "https://app.example.com/cb", Nonce: "n-1"})
	require.NoError(t, err)

	req := &oidc.Request{GrantType: oidc.AuthorizationCodeGrant, ClientID: "spa", Code: code, RedirectURI: "https://app.example.com/cb"}
	restored, err := f.authenticator.Authenticate(f.ctx, req)
	require.NoError(t, err)
	require.Equal(t, "user-1", restored.Subject())
	require.Equal(t, []string{oidc.ScopeOpenID, oidc.ScopeProfile}, restored.Scopes())
	require.Equal(t, []string{"orders-api"}, restored.Resources())
	require.Equal(t, "authz-1", restored.AuthorizationID())
	require.Equal(t, "n-1", restored.Property(principal.PropertyNonce))
	require.Len(t, restored.Claims(), len(p.Claims())-1)
	require.Empty(t, restored.FindAll(oidc.ClaimSecurityStamp))
	require.ElementsMatch(t, []string{"admin", "user"}, restored.FindAll(oidc.ClaimRole))

	_, err = f.authenticator.Authenticate(f.ctx, req)
	requireInvalidGrant(t, err, "The specified authorization code has already been redeemed.")
}

func decodePayload(t *testing.T, raw string) string {
	t.Helper()
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	return string(payload)
}

func TestGrantTokensOmitSecurityStamp(t *testing.T) {
	f := setupTestFixture(t)
	p := userPrincipal(oidc.ScopeOpenID, oidc.ScopeOfflineAccess)

	code, err := f.issuer.IssueCode(p, jwt.CodeRequest{ClientID: "spa", RedirectURI: "https://app.example.com/cb"})
	require.NoError(t, err)
	tokens, err := f.issuer.Issue(p, "spa")
	require.NoError(t, err)
	require.NotNil(t, tokens.RefreshToken)

	for name, raw := range map[string]string{"code": code, "refresh": *tokens.RefreshToken} {
		payload := decodePayload(t, raw)
		require.NotContains(t, payload, oidc.ClaimSecurityStamp, name)
		require.NotContains(t, payload, `"stamp"`, name)
		require.Contains(t, payload, `"admin"`, name)
	}
}

func TestRefreshTokenRequiresValidAuthorization(t *testing.T) {
	f := setupTestFixture(t)
	repo := fakeauthorizationrepo.NewFakeAuthorizationRepo()
	authenticator := jwt.NewAuthenticator(f.signer, testIssuer, f.revocations,
		jwt.WithAuthenticatorNowTime(func() time.Time { return f.now }),
		jwt.WithAuthorizations(repo),
	)
	authz, err := repo.Create(f.ctx, "user-1", "spa", oidc.AuthorizationTypePermanent, []string{oidc.ScopeOfflineAccess})
	require.NoError(t, err)

	issue := func(authorizationID string) string {
		p := userPrincipal(oidc.ScopeOfflineAccess)
		p.SetAuthorizationID(authorizationID)
		tokens, err := f.issuer.Issue(p, "spa")
		require.NoError(t, err)
		require.NotNil(t, tokens.RefreshToken)
		return *tokens.RefreshToken
	}
	refresh := func(raw string) error {
		_, err := authenticator.Authenticate(f.ctx, &oidc.Request{GrantType: oidc.RefreshTokenGrant, ClientID: "spa", RefreshToken: raw})
		return err
	}

	require.NoError(t, refresh(issue(authz.ID)))

	requireInvalidGrant(t, refresh(issue("missing-authz")), "The authorization associated with the token is no longer valid.")

	pending := issue(authz.ID)
	require.NoError(t, repo.Revoke(f.ctx, authz.ID))
	requireInvalidGrant(t, refresh(pending), "The authorization associated with the token is no longer valid.")
}

func TestAuthorizationCodeBinding(t *testing.T) {
	f := setupTestFixture(t)
	code, err := f.issuer.IssueCode(userPrincipal(), jwt.CodeRequest{ClientID: "spa", RedirectURI: "https://app.example.com/cb"})
	require.NoError(t, err)

	_, err = f.authenticator.Authenticate(f.ctx, &oidc.Request{GrantType: oidc.AuthorizationCodeGrant, ClientID: "other", Code: code, RedirectURI: "https://app.example.com/cb"})
	requireInvalidGrant(t, err, "The specified token cannot be used by this client application.")

	_, err = f.authenticator.Authenticate(f.ctx, &oidc.Request{GrantType: oidc.AuthorizationCodeGrant, ClientID: "spa", Code: code, RedirectURI: "https://evil.example.com"})
	requireInvalidGrant(t, err, "The specified 'redirect_uri' parameter doesn't match the authorization request.")

	_, err = f.authenticator.Authenticate(f.ctx, &oidc.Request{GrantType: oidc.AuthorizationCodeGrant, ClientID: "spa", Code: "garbage"})
	requireInvalidGrant(t, err, "The specified authorization code is invalid.")
}

func TestAuthorizationCodeExpires(t *testing.T) {
	f := setupTestFixture(t)
	code, err := f.issuer.IssueCode(userPrincipal(), jwt.CodeRequest{ClientID: "spa"})
	require.NoError(t, err)

	f.now = f.now.Add(6 * time.Minute)
	_, err = f.authenticator.Authenticate(f.ctx, &oidc.Request{GrantType: oidc.AuthorizationCodeGrant, ClientID: "spa", Code: code})
	requireInvalidGrant(t, err, "The specified authorization code is invalid.")
}

func TestAuthorizationCodePKCE(t *testing.T) {
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	tests := []struct {
		name     string
		verifier string
		message  string
	}{
		{"missing verifier", "", "The 'code_verifier' parameter is missing."},
		{"wrong verifier", "not-the-verifier", "The specified 'code_verifier' is invalid."},
		{"valid verifier", verifier, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			code, err := f.issuer.IssueCode(userPrincipal(), jwt.CodeRequest{
				ClientID:            "spa",
				CodeChallenge:       challenge,
				CodeChallengeMethod: oidc.CodeChallengeMethodS256,
			})
			require.NoError(t, err)

			_, err = f.authenticator.Authenticate(f.ctx, &oidc.Request{
				GrantType:    oidc.AuthorizationCodeGrant,
				ClientID:     "spa",
				Code:         code,
				CodeVerifier: tt.verifier,
			})
			if tt.message == "" {
				require.NoError(t, err)
				return
			}
			requireInvalidGrant(t, err, tt.message)
		})
	}
}

func TestRefreshTokenRevocation(t *testing.T) {
	f := setupTestFixture(t)
	tokens, err := f.issuer.Issue(userPrincipal(oidc.ScopeOfflineAccess), "spa")
	require.NoError(t, err)
	req := &oidc.Request{GrantType: oidc.RefreshTokenGrant, ClientID: "spa", RefreshToken: *tokens.RefreshToken}

	intro := f.inspector.Introspect(f.ctx, *tokens.RefreshToken)
	require.True(t, intro.Active)
	require.Equal(t, jwt.UseRefreshToken, intro.TokenType)

	require.NoError(t, f.inspector.Revoke(f.ctx, *tokens.RefreshToken, "spa"))
	require.False(t, f.inspector.Introspect(f.ctx, *tokens.RefreshToken).Active)

	_, err = f.authenticator.Authenticate(f.ctx, req)
	requireInvalidGrant(t, err, "The specified refresh token is no longer valid.")
}

func TestAccessTokenIsNotARefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	tokens, err := f.issuer.Issue(userPrincipal(), "spa")
	require.NoError(t, err)

	_, err = f.authenticator.Authenticate(f.ctx, &oidc.Request{GrantType: oidc.RefreshTokenGrant, ClientID: "spa", RefreshToken: tokens.AccessToken})
	requireInvalidGrant(t, err, "The specified refresh token is invalid.")
}

func TestDeviceCodeIsRejected(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.authenticator.Authenticate(f.ctx, &oidc.Request{GrantType: oidc.DeviceCodeGrant, ClientID: "tv", DeviceCode: "abc"})
	requireInvalidGrant(t, err, "The specified device code is invalid.")
}

func TestRevokeIgnoresOtherClientsTokens(t *testing.T) {
	f := setupTestFixture(t)
	tokens, err := f.issuer.Issue(userPrincipal(), "spa")
	require.NoError(t, err)

	require.NoError(t, f.inspector.Revoke(f.ctx, tokens.AccessToken, "other"))
	require.True(t, f.inspector.Introspect(f.ctx, tokens.AccessToken).Active)

	require.NoError(t, f.inspector.Revoke(f.ctx, tokens.AccessToken, "spa"))
	_, err = f.inspector.ValidateAccessToken(f.ctx, tokens.AccessToken)
	require.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestIntrospectInactive(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, &jwt.TokenIntrospection{Active: false}, f.inspector.Introspect(f.ctx, ""))
	require.Equal(t, &jwt.TokenIntrospection{Active: false}, f.inspector.Introspect(f.ctx, "not-a-jwt"))
}

func TestRedisRevocationList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	list := jwt.NewRedisRevocationList(client, "")
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)

	first, err := list.Revoke(ctx, "jti-1", exp)
	require.NoError(t, err)
	require.True(t, first)

	again, err := list.Revoke(ctx, "jti-1", exp)
	require.NoError(t, err)
	require.False(t, again)

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = list.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, revoked)

	require.True(t, mr.Exists("oidc:revoked:jti-1"))
}
