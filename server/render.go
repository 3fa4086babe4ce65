package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/results"
	"github.com/jrsteele09/go-oidc-grants/token/jwt"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, oidc.ErrorResponse{Error: errorCode, ErrorDescription: description})
}

func forbidStatus(f results.Forbid) int {
	if f.Error == oidc.ErrorAccessDenied {
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}

func writeChallenge(w http.ResponseWriter, c results.Challenge) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf("Bearer error=%q, error_description=%q", c.Error, c.Description))
	writeJSONError(w, c.Error, c.Description, http.StatusUnauthorized)
}

// serverError logs an error the handlers could not turn into a result and raises UnhandledError.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	s.events.Raise(r.Context(), events.UnhandledError(endpoint, err))
	writeJSONError(w, oidc.ErrorServerError, "An internal error occurred.", http.StatusInternalServerError)
}

// renderTokenResult writes the token endpoint response for result.
func (s *Server) renderTokenResult(w http.ResponseWriter, r *http.Request, req *oidc.Request, result results.Result) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	switch res := result.(type) {
	case results.SignIn:
		tokens, err := s.jwtIssuer.Issue(res.Principal, req.ClientID)
		if err != nil {
			s.serverError(w, r, events.EndpointToken, err)
			return
		}
		writeJSON(w, http.StatusOK, tokens.Response())
	case results.Forbid:
		writeJSONError(w, res.Error, res.Description, forbidStatus(res))
	default:
		s.serverError(w, r, events.EndpointToken, fmt.Errorf("unexpected token result %T", result))
	}
}

// renderAuthorizeResult writes the authorization endpoint response for result. req has passed
// authorize.ValidateRequest, so its redirect uri is registered for the client.
func (s *Server) renderAuthorizeResult(w http.ResponseWriter, r *http.Request, req *oidc.Request, result results.Result) {
	switch res := result.(type) {
	case results.SignIn:
		code, err := s.jwtIssuer.IssueCode(res.Principal, jwt.CodeRequest{
			ClientID:            req.ClientID,
			RedirectURI:         req.RedirectURI,
			Nonce:               req.Nonce,
			CodeChallenge:       req.CodeChallenge,
			CodeChallengeMethod: req.CodeChallengeMethod,
		})
		if err != nil {
			s.serverError(w, r, events.EndpointAuthorize, err)
			return
		}
		redirectToClient(w, r, req, url.Values{oidc.ParamCode: {code}})
	case results.Forbid:
		redirectToClient(w, r, req, url.Values{"error": {res.Error}, "error_description": {res.Description}})
	case results.LoginRedirect:
		http.Redirect(w, r, RouteLogin+"?"+url.Values{paramReturnURL: {res.ReturnURL}}.Encode(), http.StatusFound)
	case results.ConsentForm:
		s.renderConsent(w, r, req, res)
	default:
		s.serverError(w, r, events.EndpointAuthorize, fmt.Errorf("unexpected authorize result %T", result))
	}
}

type hiddenField struct {
	Name  string
	Value string
}

// renderConsent shows the consent form. The form posts the authorization parameters back to
// the consent endpoint.
func (s *Server) renderConsent(w http.ResponseWriter, r *http.Request, req *oidc.Request, form results.ConsentForm) {
	keys := make([]string, 0, len(req.Parameters))
	for k := range req.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var fields []hiddenField
	for _, k := range keys {
		for _, v := range req.Parameters[k] {
			fields = append(fields, hiddenField{Name: k, Value: v})
		}
	}
	s.renderTemplate(w, r, events.EndpointAuthorize, templateConsent, http.StatusOK, map[string]any{
		"AppName":         s.config.GetAppName(),
		"ApplicationName": form.ApplicationName,
		"Scopes":          strings.Fields(form.Scope),
		"Action":          RouteAuthorizeConsent,
		"Parameters":      fields,
	})
}

// redirectToClient sends params (and the state) to the client's redirect uri in the query string.
func redirectToClient(w http.ResponseWriter, r *http.Request, req *oidc.Request, params url.Values) {
	u, err := url.Parse(req.RedirectURI)
	if err != nil {
		writeJSONError(w, oidc.ErrorInvalidRequest, "The specified 'redirect_uri' is not valid.", http.StatusBadRequest)
		return
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	if req.State != "" {
		q.Set(oidc.ParamState, req.State)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}
