package principal_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/stretchr/testify/require"
)

func TestDefaultDestinations(t *testing.T) {
	tests := []struct {
		name      string
		claimType string
		scopes    []string
		want      []principal.Destination
	}{
		{"name without profile", oidc.ClaimName, nil, []principal.Destination{principal.AccessToken}},
		{"name with profile", oidc.ClaimName, []string{oidc.ScopeProfile}, []principal.Destination{principal.AccessToken, principal.IdentityToken}},
		{"email without email scope", oidc.ClaimEmail, []string{oidc.ScopeProfile}, []principal.Destination{principal.AccessToken}},
		{"email with email scope", oidc.ClaimEmail, []string{oidc.ScopeEmail}, []principal.Destination{principal.AccessToken, principal.IdentityToken}},
		{"role with roles scope", oidc.ClaimRole, []string{oidc.ScopeRoles}, []principal.Destination{principal.AccessToken, principal.IdentityToken}},
		{"security stamp", oidc.ClaimSecurityStamp, []string{oidc.ScopeProfile}, nil},
		{"subject", oidc.ClaimSubject, []string{oidc.ScopeProfile}, []principal.Destination{principal.AccessToken}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := principal.New()
			p.SetScopes(tt.scopes)
			got := principal.DefaultDestinations(principal.NewClaim(tt.claimType, "v"), p)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestApplyDefaultDestinations(t *testing.T) {
	p := principal.New(
		principal.NewClaim(oidc.ClaimSubject, "user-1"),
		principal.NewClaim(oidc.ClaimName, "alice"),
		principal.NewClaim(oidc.ClaimSecurityStamp, "stamp"),
	)
	p.SetScopes([]string{oidc.ScopeProfile})
	principal.ApplyDefaultDestinations(p)

	require.Len(t, p.ClaimsFor(principal.AccessToken), 2)
	idClaims := p.ClaimsFor(principal.IdentityToken)
	require.Len(t, idClaims, 1)
	require.Equal(t, oidc.ClaimName, idClaims[0].Type)
}

func TestPrincipalClaims(t *testing.T) {
	p := principal.New(principal.NewClaim(oidc.ClaimSubject, "user-1"))
	p.AddClaim(oidc.ClaimRole, "admin")
	p.AddClaim(oidc.ClaimRole, "user")
	require.Equal(t, "user-1", p.Subject())
	require.Equal(t, []string{"admin", "user"}, p.FindAll(oidc.ClaimRole))

	p.SetClaim(oidc.ClaimRole, "owner")
	require.Equal(t, []string{"owner"}, p.FindAll(oidc.ClaimRole))

	_, ok := p.AccessTokenLifetime()
	require.False(t, ok)
	p.SetAccessTokenLifetime(7 * time.Hour)
	lifetime, ok := p.AccessTokenLifetime()
	require.True(t, ok)
	require.Equal(t, 7*time.Hour, lifetime)
}

func TestApplyDefaultDestinationsKeepsExplicitDestinations(t *testing.T) {
	p := principal.New(principal.NewClaim(oidc.ClaimSubject, "svc-a", principal.AccessToken, principal.IdentityToken))
	principal.ApplyDefaultDestinations(p)
	require.Len(t, p.ClaimsFor(principal.IdentityToken), 1)
}
