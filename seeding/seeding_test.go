package seeding_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/jrsteele09/go-oidc-grants/clients"
	fakeclientrepo "github.com/jrsteele09/go-oidc-grants/clients/fakerepo"
	"github.com/jrsteele09/go-oidc-grants/configuration"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/scopes"
	fakescoperepo "github.com/jrsteele09/go-oidc-grants/scopes/repofake"
	"github.com/jrsteele09/go-oidc-grants/seeding"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	ctx    context.Context
	apps   *fakeclientrepo.FakeClientRepo
	scopes *fakescoperepo.FakeScopeRepo
	logs   *bytes.Buffer
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	return &testFixture{
		ctx:    context.Background(),
		apps:   fakeclientrepo.NewFakeClientRepo(),
		scopes: fakescoperepo.NewFakeScopeRepo(),
		logs:   &bytes.Buffer{},
	}
}

func (f *testFixture) run(t *testing.T, cfg *configuration.OpenIDConnectConfig) {
	t.Helper()
	runner := seeding.NewRunner(f.apps, f.scopes, cfg, seeding.WithLogger(zerolog.New(f.logs)))
	require.NoError(t, runner.Run(f.ctx))
}

func testConfig() *configuration.OpenIDConnectConfig {
	return &configuration.OpenIDConnectConfig{
		URL: "https://auth.example.com",
		AuthorizationCodeClients: []*configuration.AuthorizationCodeClient{
			{ClientBase: configuration.ClientBase{ClientID: "spa", ClientScopes: []string{"orders.read"}}, BaseURL: "https://spa.example.com"},
		},
		ClientCredentialsClients: []*configuration.ClientCredentialsClient{
			{ClientBase: configuration.ClientBase{ClientID: "svc-a"}, ClientSecret: "svc-secret"},
		},
		ResourceOwnerPasswordClients: []*configuration.ResourceOwnerPasswordClient{
			{ClientBase: configuration.ClientBase{ClientID: "test-automation"}, ClientSecret: "ropc-secret"},
		},
		CustomGrantTypeClients: []*configuration.CustomGrantTypeClient{
			{
				ClientBase:   configuration.ClientBase{ClientID: "kiosk"},
				GrantType:    "urn:example:kiosk",
				ClientType:   oidc.ClientTypeConfidential,
				ClientSecret: "kiosk-secret",
				ClientURIs:   []string{"https://kiosk.example.com/callback"},
			},
		},
		Scopes: []*configuration.Scope{
			{Name: "orders.read", Resources: []string{"orders-api"}},
		},
	}
}

func TestRunCreatesApplicationsAndScopes(t *testing.T) {
	f := setupTestFixture(t)
	f.run(t, testConfig())

	spa, err := f.apps.FindByClientID(f.ctx, "spa")
	require.NoError(t, err)
	require.True(t, spa.IsPublic())
	require.Equal(t, oidc.ConsentImplicit, spa.ConsentType)
	require.Equal(t, []string{"https://spa.example.com"}, spa.RedirectURIs)
	require.Equal(t, []string{"https://spa.example.com"}, spa.PostLogoutRedirectURIs)
	require.Equal(t, []string{oidc.RequirementPKCE}, spa.Requirements)
	require.True(t, spa.HasPermission(oidc.PermissionEndpointAuthorization))
	require.True(t, spa.HasPermission(oidc.PermissionResponseTypeCode))
	require.True(t, spa.HasPermission("scp:orders.read"))
	require.True(t, spa.CanUseGrantType(oidc.AuthorizationCodeGrant))
	require.Empty(t, spa.ClientSecret)

	svc, err := f.apps.FindByClientID(f.ctx, "svc-a")
	require.NoError(t, err)
	require.Equal(t, oidc.ClientTypeConfidential, svc.Type)
	require.True(t, svc.CanUseGrantType(oidc.ClientCredentialsGrant))
	require.False(t, svc.HasPermission(oidc.PermissionEndpointAuthorization))
	require.NotEqual(t, "svc-secret", svc.ClientSecret)
	require.True(t, svc.CheckSecret("svc-secret"))
	require.False(t, svc.CheckSecret("wrong"))

	ropc, err := f.apps.FindByClientID(f.ctx, "test-automation")
	require.NoError(t, err)
	require.True(t, ropc.CanUseGrantType(oidc.PasswordGrant))
	require.True(t, ropc.CanUseGrantType(oidc.RefreshTokenGrant))

	kiosk, err := f.apps.FindByClientID(f.ctx, "kiosk")
	require.NoError(t, err)
	require.True(t, kiosk.CanUseGrantType("urn:example:kiosk"))
	require.True(t, kiosk.HasPermission(oidc.PermissionScopeProfile))
	require.Equal(t, []string{"https://kiosk.example.com/callback"}, kiosk.RedirectURIs)

	scope, err := f.scopes.FindByName(f.ctx, "orders.read")
	require.NoError(t, err)
	require.Equal(t, []string{"orders-api"}, scope.Resources)

	require.Contains(t, f.logs.String(), "creating client")
	require.Contains(t, f.logs.String(), "creating scope")
}

func TestRunUpdatesExisting(t *testing.T) {
	f := setupTestFixture(t)
	existing := &clients.Application{ClientID: "svc-a", DisplayName: "Service A", Permissions: []string{oidc.PermissionEndpointAuthorization}}
	require.NoError(t, f.apps.Create(f.ctx, existing))
	require.NoError(t, f.scopes.Create(f.ctx, &scopes.Scope{Name: "orders.read", Resources: []string{"legacy-api"}}))

	f.run(t, testConfig())

	svc, err := f.apps.FindByClientID(f.ctx, "svc-a")
	require.NoError(t, err)
	require.Equal(t, existing.ID, svc.ID)
	require.Equal(t, "Service A", svc.DisplayName)
	require.False(t, svc.HasPermission(oidc.PermissionEndpointAuthorization))
	require.True(t, svc.CanUseGrantType(oidc.ClientCredentialsGrant))

	scope, err := f.scopes.FindByName(f.ctx, "orders.read")
	require.NoError(t, err)
	require.Equal(t, []string{"orders-api"}, scope.Resources)
	require.Contains(t, f.logs.String(), "updating client")
	require.Contains(t, f.logs.String(), "updating scope")
}

func TestRunDeletesUnconfigured(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.apps.Create(f.ctx, &clients.Application{ClientID: "retired"}))
	require.NoError(t, f.scopes.Create(f.ctx, &scopes.Scope{Name: "legacy.write"}))

	f.run(t, testConfig())

	_, err := f.apps.FindByClientID(f.ctx, "retired")
	require.ErrorIs(t, err, clients.ErrNotFound)
	_, err = f.scopes.FindByName(f.ctx, "legacy.write")
	require.ErrorIs(t, err, scopes.ErrNotFound)

	apps, err := f.apps.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, apps, 4)
	require.Contains(t, f.logs.String(), "deleting client")
}

func TestRunWithoutConfiguredScopesKeepsStoredScopes(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.scopes.Create(f.ctx, &scopes.Scope{Name: "legacy.write"}))

	cfg := testConfig()
	cfg.Scopes = nil
	f.run(t, cfg)

	_, err := f.scopes.FindByName(f.ctx, "legacy.write")
	require.NoError(t, err)
}

func TestRunIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	f.run(t, testConfig())
	first, err := f.apps.List(f.ctx)
	require.NoError(t, err)

	f.run(t, testConfig())
	second, err := f.apps.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].ID, second[i].ID)
		require.Equal(t, first[i].Permissions, second[i].Permissions)
	}
}

func TestAuthorizationCodeApplicationKeepsConfiguredURIs(t *testing.T) {
	app := seeding.AuthorizationCodeApplication(&configuration.AuthorizationCodeClient{
		ClientBase:             configuration.ClientBase{ClientID: "spa"},
		BaseURL:                "https://spa.example.com",
		RedirectURIs:           []string{"https://spa.example.com/callback", "https://spa.example.com/silent-renew"},
		PostLogoutRedirectURIs: []string{"https://spa.example.com/bye"},
	})
	require.Equal(t, []string{"https://spa.example.com/callback", "https://spa.example.com/silent-renew"}, app.RedirectURIs)
	require.Equal(t, []string{"https://spa.example.com/bye"}, app.PostLogoutRedirectURIs)
}
