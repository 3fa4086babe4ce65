package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Interactive login
	RouteLogin = "/account/login"

	// OpenID Connect endpoints
	RouteAuthorize        = "/connect/authorize"
	RouteAuthorizeConsent = "/connect/authorize/consent"
	RouteToken            = "/connect/token"
	RouteUserInfo         = "/connect/userinfo"
	RouteLogout           = "/connect/logout"
	RouteIntrospect       = "/connect/introspect"
	RouteRevoke           = "/connect/revoke"

	// Discovery
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteWellKnownJWKS         = "/.well-known/jwks.json"

	RouteMetrics = "/metrics"
)

// Query and form parameters used by the login page.
const (
	paramReturnURL = "ReturnUrl"
	paramDecision  = "decision"

	decisionAccept = "accept"
	decisionDeny   = "deny"
)
