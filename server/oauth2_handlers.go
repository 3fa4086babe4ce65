package server

import (
	"net/http"
	"slices"

	"github.com/jrsteele09/go-oidc-grants/authorize"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/token/jwt"
)

// WellKnownOpenIDConfig serves the OIDC discovery document
func (s *Server) WellKnownOpenIDConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL := s.issuer

		resp := map[string]any{
			"issuer":                 baseURL,
			"authorization_endpoint": baseURL + RouteAuthorize,
			"token_endpoint":         baseURL + RouteToken,
			"userinfo_endpoint":      baseURL + RouteUserInfo,
			"jwks_uri":               baseURL + RouteWellKnownJWKS,
			"revocation_endpoint":    baseURL + RouteRevoke,
			"introspection_endpoint": baseURL + RouteIntrospect,
			"end_session_endpoint":   baseURL + RouteLogout,

			// Only the code flow is served by the authorization endpoint
			"response_types_supported": []string{oidc.ResponseTypeCode},
			"response_modes_supported": []string{"query"},
			"subject_types_supported":  []string{"public"},

			"id_token_signing_alg_values_supported": []string{"RS256"},
			"scopes_supported":                      s.supportedScopes(),

			"token_endpoint_auth_methods_supported": []string{
				"client_secret_basic",
				"client_secret_post",
				"none", // For public clients with PKCE
			},
			"grant_types_supported":            s.supportedGrantTypes(),
			"code_challenge_methods_supported": []string{oidc.CodeChallengeMethodS256, oidc.CodeChallengeMethodPlain},

			"claims_supported": []string{
				oidc.ClaimSubject,
				oidc.ClaimName,
				oidc.ClaimEmail,
				oidc.ClaimPreferredUsername,
				oidc.ClaimGivenName,
				oidc.ClaimFamilyName,
				oidc.ClaimRole,
			},

			"claims_parameter_supported":      false,
			"request_parameter_supported":     false,
			"request_uri_parameter_supported": false,
		}

		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) supportedScopes() []string {
	supported := []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail, oidc.ScopeRoles, oidc.ScopeOfflineAccess}
	for _, scope := range s.oidcConfig.Scopes {
		if !slices.Contains(supported, scope.Name) {
			supported = append(supported, scope.Name)
		}
	}
	return supported
}

// supportedGrantTypes lists the built-in grants and the extension grants a validator is
// registered for. Configured custom grants without a validator cannot be redeemed.
func (s *Server) supportedGrantTypes() []string {
	supported := []string{
		string(oidc.AuthorizationCodeGrant),
		string(oidc.RefreshTokenGrant),
		string(oidc.ClientCredentialsGrant),
		string(oidc.PasswordGrant),
	}
	for _, grantType := range s.customGrants {
		if grantType != "" && !slices.Contains(supported, string(grantType)) {
			supported = append(supported, string(grantType))
		}
	}
	return supported
}

// JWKS returns the JSON Web Key Set used to validate tokens
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.signer.GetJWKS()
		if err != nil {
			s.serverError(w, r, events.EndpointDiscovery, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, jwks)
	}
}

// Token authenticates the client and hands the request to the grant type providers.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oidc.ErrorInvalidRequest, "The request body is malformed.", http.StatusBadRequest)
			return
		}
		req := oidc.ParseRequest(r.PostForm)
		if req.GrantType == "" {
			writeJSONError(w, oidc.ErrorInvalidRequest, "The mandatory 'grant_type' parameter is missing.", http.StatusBadRequest)
			return
		}

		app, ok := s.authenticateClient(w, r, req, oidc.PermissionEndpointToken)
		if !ok {
			return
		}
		if !app.CanUseGrantType(req.GrantType) {
			s.rejectTokenRequest(w, r, req, oidc.ErrorUnauthorizedClient, "This client application is not allowed to use the specified grant type.")
			return
		}
		if forbid := authorize.ValidateScopes(app, req.Scopes()); forbid != nil {
			s.rejectTokenRequest(w, r, req, forbid.Error, forbid.Description)
			return
		}

		result, err := s.tokens.Handle(r.Context(), req)
		if err != nil {
			s.serverError(w, r, events.EndpointToken, err)
			return
		}
		s.renderTokenResult(w, r, req, result)
	}
}

func (s *Server) rejectTokenRequest(w http.ResponseWriter, r *http.Request, req *oidc.Request, errorCode, description string) {
	s.events.Raise(r.Context(), events.TokenIssuedFailure(req, description))
	w.Header().Set("Cache-Control", "no-store")
	writeJSONError(w, errorCode, description, http.StatusBadRequest)
}

// Introspect reports on a token (RFC 7662). Callers only learn about tokens issued to them or
// naming them as an audience.
func (s *Server) Introspect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oidc.ErrorInvalidRequest, "The request body is malformed.", http.StatusBadRequest)
			return
		}
		req := oidc.ParseRequest(r.PostForm)
		app, ok := s.authenticateClient(w, r, req, oidc.PermissionEndpointIntrospection)
		if !ok {
			return
		}
		raw := r.PostForm.Get(oidc.ParamToken)
		if raw == "" {
			writeJSONError(w, oidc.ErrorInvalidRequest, "The mandatory 'token' parameter is missing.", http.StatusBadRequest)
			return
		}

		introspection := s.inspector.Introspect(r.Context(), raw)
		if introspection.Active && introspection.ClientID != app.ClientID && !slices.Contains(introspection.Aud, app.ClientID) {
			introspection = &jwt.TokenIntrospection{Active: false}
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, introspection)
	}
}

// Revoke invalidates a token issued to the calling client (RFC 7009).
func (s *Server) Revoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oidc.ErrorInvalidRequest, "The request body is malformed.", http.StatusBadRequest)
			return
		}
		req := oidc.ParseRequest(r.PostForm)
		app, ok := s.authenticateClient(w, r, req, oidc.PermissionEndpointRevocation)
		if !ok {
			return
		}
		raw := r.PostForm.Get(oidc.ParamToken)
		if raw == "" {
			writeJSONError(w, oidc.ErrorInvalidRequest, "The mandatory 'token' parameter is missing.", http.StatusBadRequest)
			return
		}
		if err := s.inspector.Revoke(r.Context(), raw, app.ClientID); err != nil {
			s.serverError(w, r, events.EndpointRevocation, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
