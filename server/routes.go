package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Authorization endpoint, interactive
	s.RegisterRouteFunc("GET "+RouteAuthorize, ChainMiddleware(s.Authorize(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteAuthorize, ChainMiddleware(s.Authorize(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteAuthorizeConsent, ChainMiddleware(s.Consent(), s.HTMLMiddleWare()...))

	// OAuth2 / OIDC API routes
	s.RegisterRouteFunc("GET "+RouteWellKnownOpenIDConfig, ChainMiddleware(s.WellKnownOpenIDConfig(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteUserInfo, ChainMiddleware(s.UserInfo(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteUserInfo, ChainMiddleware(s.UserInfo(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteIntrospect, ChainMiddleware(s.Introspect(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteRevoke, ChainMiddleware(s.Revoke(), s.APIMiddleware()...))

	// CORS preflight for browser clients
	s.RegisterRouteFunc("OPTIONS "+RouteToken, ChainMiddleware(preflight, s.APIMiddleware()...))
	s.RegisterRouteFunc("OPTIONS "+RouteUserInfo, ChainMiddleware(preflight, s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
}

// preflight answers OPTIONS requests from origins the CORS middleware did not accept.
func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
