package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/results"
	"github.com/jrsteele09/go-oidc-grants/token/jwt"
)

// UserInfo returns the claims of the user the bearer access token was issued for.
func (s *Server) UserInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeChallenge(w, results.Challenge{Error: oidc.ErrorInvalidRequest, Description: "The access token is missing."})
			return
		}

		p, err := s.inspector.ValidateAccessToken(r.Context(), raw)
		if errors.Is(err, jwt.ErrInvalidToken) {
			writeChallenge(w, results.Challenge{Error: oidc.ErrorInvalidToken, Description: "The specified access token is invalid."})
			return
		}
		if err != nil {
			s.serverError(w, r, events.EndpointUserInfo, err)
			return
		}

		result, err := s.userInfo.Handle(r.Context(), p)
		if err != nil {
			s.serverError(w, r, events.EndpointUserInfo, err)
			return
		}
		switch res := result.(type) {
		case results.UserInfo:
			w.Header().Set("Cache-Control", "no-store")
			writeJSON(w, http.StatusOK, res.Claims)
		case results.Challenge:
			writeChallenge(w, res)
		default:
			s.serverError(w, r, events.EndpointUserInfo, fmt.Errorf("unexpected userinfo result %T", result))
		}
	}
}

// bearerToken reads the access token from the Authorization header, or from the form body of a
// POST request (RFC 6750 section 2.2).
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
		return ""
	}
	if r.Method == http.MethodPost {
		return r.PostFormValue(oidc.ParamAccessToken)
	}
	return ""
}
