package oidc

// Permission prefixes attached to registered applications.
const (
	PermissionPrefixEndpoint     = "ept:"
	PermissionPrefixGrantType    = "gt:"
	PermissionPrefixResponseType = "rst:"
	PermissionPrefixScope        = "scp:"
)

// Endpoint permissions.
const (
	PermissionEndpointAuthorization = PermissionPrefixEndpoint + "authorization"
	PermissionEndpointLogout        = PermissionPrefixEndpoint + "logout"
	PermissionEndpointToken         = PermissionPrefixEndpoint + "token"
	PermissionEndpointRevocation    = PermissionPrefixEndpoint + "revocation"
	PermissionEndpointIntrospection = PermissionPrefixEndpoint + "introspection"
)

// Response type and scope permissions.
const (
	PermissionResponseTypeCode = PermissionPrefixResponseType + "code"

	PermissionScopeEmail   = PermissionPrefixScope + ScopeEmail
	PermissionScopeProfile = PermissionPrefixScope + ScopeProfile
	PermissionScopeRoles   = PermissionPrefixScope + ScopeRoles
)

// RequirementPKCE requires a code challenge on authorization requests.
const RequirementPKCE = "ft:pkce"

// GrantTypePermission returns the permission that allows a client to use grantType.
// It is also used for custom grant types.
func GrantTypePermission(grantType GrantType) string {
	return PermissionPrefixGrantType + string(grantType)
}

// ScopePermission returns the permission that allows a client to request scope.
func ScopePermission(scope string) string {
	return PermissionPrefixScope + scope
}
