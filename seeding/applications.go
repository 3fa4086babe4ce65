package seeding

import (
	"github.com/jrsteele09/go-oidc-grants/clients"
	"github.com/jrsteele09/go-oidc-grants/configuration"
	"github.com/jrsteele09/go-oidc-grants/oidc"
)

// AuthorizationCodeApplication maps an interactive client to a public application that must use PKCE.
func AuthorizationCodeApplication(c *configuration.AuthorizationCodeClient) *clients.Application {
	app := &clients.Application{
		ClientID:    c.ClientID,
		Type:        oidc.ClientTypePublic,
		ConsentType: oidc.ConsentImplicit,
		Permissions: append([]string{
			oidc.PermissionEndpointAuthorization,
			oidc.PermissionEndpointLogout,
			oidc.PermissionEndpointToken,
			oidc.PermissionEndpointRevocation,
			oidc.GrantTypePermission(oidc.AuthorizationCodeGrant),
			oidc.GrantTypePermission(oidc.RefreshTokenGrant),
			oidc.PermissionResponseTypeCode,
			oidc.PermissionScopeEmail,
			oidc.PermissionScopeProfile,
			oidc.PermissionScopeRoles,
		}, scopePermissions(c.ClientScopes)...),
		Requirements:           []string{oidc.RequirementPKCE},
		RedirectURIs:           c.RedirectURIs,
		PostLogoutRedirectURIs: c.PostLogoutRedirectURIs,
	}
	if len(app.RedirectURIs) == 0 {
		app.RedirectURIs = []string{c.BaseURL}
	}
	if len(app.PostLogoutRedirectURIs) == 0 {
		app.PostLogoutRedirectURIs = []string{c.BaseURL}
	}
	return app
}

// ClientCredentialsApplication maps a machine-to-machine client to a confidential application.
func ClientCredentialsApplication(c *configuration.ClientCredentialsClient) *clients.Application {
	return &clients.Application{
		ClientID:    c.ClientID,
		Type:        oidc.ClientTypeConfidential,
		ConsentType: oidc.ConsentImplicit,
		Permissions: append([]string{
			oidc.PermissionEndpointIntrospection,
			oidc.PermissionEndpointToken,
			oidc.GrantTypePermission(oidc.ClientCredentialsGrant),
		}, scopePermissions(c.ClientScopes)...),
	}
}

func ResourceOwnerPasswordApplication(c *configuration.ResourceOwnerPasswordClient) *clients.Application {
	return &clients.Application{
		ClientID:    c.ClientID,
		Type:        oidc.ClientTypeConfidential,
		ConsentType: oidc.ConsentImplicit,
		Permissions: append([]string{
			oidc.PermissionEndpointIntrospection,
			oidc.PermissionEndpointToken,
			oidc.GrantTypePermission(oidc.PasswordGrant),
			oidc.GrantTypePermission(oidc.RefreshTokenGrant),
		}, scopePermissions(c.ClientScopes)...),
	}
}

// CustomGrantTypeApplication maps a custom grant client. Its client uris become redirect uris.
func CustomGrantTypeApplication(c *configuration.CustomGrantTypeClient) *clients.Application {
	clientType := c.ClientType
	if clientType == "" {
		clientType = oidc.ClientTypePublic
	}
	return &clients.Application{
		ClientID:    c.ClientID,
		Type:        clientType,
		ConsentType: oidc.ConsentImplicit,
		Permissions: append([]string{
			oidc.PermissionEndpointIntrospection,
			oidc.PermissionEndpointToken,
			oidc.PermissionEndpointLogout,
			oidc.GrantTypePermission(oidc.RefreshTokenGrant),
			oidc.PermissionScopeProfile,
			oidc.GrantTypePermission(c.GrantType),
		}, scopePermissions(c.ClientScopes)...),
		RedirectURIs: c.ClientURIs,
	}
}
