package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-oidc-grants/clients"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
)

var endpointNames = map[string]string{
	oidc.PermissionEndpointToken:         events.EndpointToken,
	oidc.PermissionEndpointIntrospection: events.EndpointIntrospection,
	oidc.PermissionEndpointRevocation:    events.EndpointRevocation,
}

// authenticateClient resolves the calling application from HTTP Basic credentials or the
// client_id and client_secret form fields, and checks it may use the endpoint. On failure the
// error response has been written and ok is false.
func (s *Server) authenticateClient(w http.ResponseWriter, r *http.Request, req *oidc.Request, endpointPermission string) (app *clients.Application, ok bool) {
	id, secret, basic := r.BasicAuth()
	if basic {
		// RFC 6749 section 2.3.1 form-encodes both values
		clientID, idErr := url.QueryUnescape(id)
		clientSecret, secretErr := url.QueryUnescape(secret)
		if idErr != nil || secretErr != nil {
			invalidClient(w, true)
			return nil, false
		}
		req.ClientID, req.ClientSecret = clientID, clientSecret
	}

	if req.ClientID == "" {
		invalidClient(w, basic)
		return nil, false
	}
	app, err := s.applications.FindByClientID(r.Context(), req.ClientID)
	if errors.Is(err, clients.ErrNotFound) {
		s.logger.Info().Str("clientId", req.ClientID).Msg("unknown client")
		invalidClient(w, basic)
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, endpointNames[endpointPermission], err)
		return nil, false
	}
	if !app.IsPublic() && !app.CheckSecret(req.ClientSecret) {
		s.logger.Info().Str("clientId", req.ClientID).Msg("client authentication failed")
		invalidClient(w, basic)
		return nil, false
	}
	if !app.HasPermission(endpointPermission) {
		writeJSONError(w, oidc.ErrorUnauthorizedClient, "This client application is not allowed to use this endpoint.", http.StatusBadRequest)
		return nil, false
	}
	return app, true
}

func invalidClient(w http.ResponseWriter, basic bool) {
	if basic {
		w.Header().Set("WWW-Authenticate", `Basic realm="oidc"`)
	}
	writeJSONError(w, oidc.ErrorInvalidClient, "The client application could not be authenticated.", http.StatusUnauthorized)
}
