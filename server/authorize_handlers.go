package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-oidc-grants/authorize"
	"github.com/jrsteele09/go-oidc-grants/clients"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/results"
)

// Authorize begins the authorization code flow
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oidc.ErrorInvalidRequest, "The request is malformed.", http.StatusBadRequest)
			return
		}
		params := r.Form
		req, ok := s.validAuthorizationRequest(w, r, params)
		if !ok {
			return
		}

		endpoint := authorize.Endpoint{Path: RouteAuthorize, Parameters: params}
		result, err := s.authorize.Handle(r.Context(), req, endpoint, s.authorizeSession(r))
		if err != nil {
			s.serverError(w, r, events.EndpointAuthorize, err)
			return
		}
		s.renderAuthorizeResult(w, r, req, result)
	}
}

// Consent completes an authorization request after the user answered the consent form. The form
// posts the original authorization parameters back along with the decision.
func (s *Server) Consent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oidc.ErrorInvalidRequest, "The request is malformed.", http.StatusBadRequest)
			return
		}
		params := url.Values{}
		for k, v := range r.PostForm {
			if k != paramDecision {
				params[k] = v
			}
		}
		req, ok := s.validAuthorizationRequest(w, r, params)
		if !ok {
			return
		}

		var result results.Result
		var err error
		switch r.PostForm.Get(paramDecision) {
		case decisionAccept:
			result, err = s.authorize.Accept(r.Context(), req, s.authorizeSession(r))
		case decisionDeny:
			result, err = s.authorize.Deny(r.Context(), req, s.authorizeSession(r))
		default:
			writeJSONError(w, oidc.ErrorInvalidRequest, "The consent decision is missing.", http.StatusBadRequest)
			return
		}
		if err != nil {
			s.serverError(w, r, events.EndpointAuthorize, err)
			return
		}
		s.renderAuthorizeResult(w, r, req, result)
	}
}

// validAuthorizationRequest parses and validates an authorization request. Requests without a
// known client or a registered redirect uri are answered directly, the others are redirected
// back to the client with the error.
func (s *Server) validAuthorizationRequest(w http.ResponseWriter, r *http.Request, params url.Values) (*oidc.Request, bool) {
	req := oidc.ParseRequest(params)
	if req.ClientID == "" {
		writeJSONError(w, oidc.ErrorInvalidRequest, "The mandatory 'client_id' parameter is missing.", http.StatusBadRequest)
		return nil, false
	}
	app, err := s.applications.FindByClientID(r.Context(), req.ClientID)
	if errors.Is(err, clients.ErrNotFound) {
		writeJSONError(w, oidc.ErrorInvalidClient, "The specified 'client_id' is invalid.", http.StatusBadRequest)
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, events.EndpointAuthorize, err)
		return nil, false
	}

	if forbid := authorize.ValidateRequest(app, req); forbid != nil {
		if !authorize.ValidRedirectURI(app, req.RedirectURI) {
			writeJSONError(w, forbid.Error, forbid.Description, http.StatusBadRequest)
			return nil, false
		}
		redirectToClient(w, r, req, url.Values{"error": {forbid.Error}, "error_description": {forbid.Description}})
		return nil, false
	}
	return req, true
}
