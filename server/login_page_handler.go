package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oidc-grants/authorize"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/token"
	"github.com/jrsteele09/go-oidc-grants/users"
)

const messageInvalidLogin = "Invalid username or password"

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName    string
	Action     string
	ReturnURL  string // Authorization request to resume after login (hidden field in form)
	Error      string
	Username   string // Preserve username on error
	SignedInAs string // Set when there is nothing to return to
}

// LoginPageHandler displays the login page (GET /account/login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderLogin(w, r, http.StatusOK, LoginPageData{ReturnURL: r.URL.Query().Get(paramReturnURL)})
	}
}

// LoginSubmissionHandler checks the credentials, starts the login session and resumes the
// authorization request named by ReturnUrl.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.PostForm.Get("username"))
		password := r.PostForm.Get("password")
		returnURL := r.PostForm.Get(paramReturnURL)
		clientID := returnClientID(returnURL)

		loginError := func(reason string) {
			s.events.Raise(r.Context(), events.UserLoginFailure(username, reason, true, clientID))
			s.renderLogin(w, r, http.StatusUnauthorized, LoginPageData{
				ReturnURL: returnURL,
				Error:     messageInvalidLogin,
				Username:  username,
			})
		}

		if username == "" || password == "" {
			loginError(token.ReasonInvalidCredentials)
			return
		}
		user, err := s.users.FindByName(r.Context(), username)
		if errors.Is(err, users.ErrNotFound) {
			loginError(token.ReasonInvalidCredentials)
			return
		}
		if err != nil {
			s.serverError(w, r, events.EndpointUI, err)
			return
		}
		result, err := s.signIn.CheckPasswordSignIn(r.Context(), user, password, true)
		if err != nil {
			s.serverError(w, r, events.EndpointUI, err)
			return
		}
		if !result.Succeeded() {
			loginError(token.FailureReason(result))
			return
		}

		if err := s.startSession(r.Context(), w, r, user); err != nil {
			s.serverError(w, r, events.EndpointUI, err)
			return
		}
		s.events.Raise(r.Context(), events.UserLoginSuccess(user.GetUserName(), user.GetID(), user.GetDisplayName(), true, clientID))

		if localAuthorizeURL(returnURL) {
			http.Redirect(w, r, returnURL, http.StatusFound)
			return
		}
		s.renderLogin(w, r, http.StatusOK, LoginPageData{SignedInAs: user.GetDisplayName()})
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginPageData) {
	data.AppName = s.config.GetAppName()
	data.Action = RouteLogin
	s.renderTemplate(w, r, events.EndpointUI, templateLogin, status, data)
}

// LogoutHandler ends the login session and returns to the client when it sent a registered
// post_logout_redirect_uri.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, session := s.currentSession(r)
		s.endSession(w, r, sessionID)
		if session != nil {
			s.events.Raise(r.Context(), events.UserLogoutSuccess(session.Subject, session.DisplayName))
		}

		query := r.URL.Query()
		if redirectURI := query.Get(oidc.ParamPostLogoutRedirectURI); redirectURI != "" {
			app, err := s.applications.FindByClientID(r.Context(), query.Get(oidc.ParamClientID))
			if err == nil && app.HasPermission(oidc.PermissionEndpointLogout) && authorize.ValidPostLogoutRedirectURI(app, redirectURI) {
				redirectToClient(w, r, &oidc.Request{RedirectURI: redirectURI, State: query.Get(oidc.ParamState)}, url.Values{})
				return
			}
			s.logger.Info().Str("clientId", query.Get(oidc.ParamClientID)).Msg("ignoring unregistered post logout redirect uri")
		}
		s.renderTemplate(w, r, events.EndpointEndSession, templateLoggedOut, http.StatusOK, map[string]any{"AppName": s.config.GetAppName()})
	}
}

// localAuthorizeURL reports whether returnURL points back at this server's authorization
// endpoint. Anything else could be an open redirect.
func localAuthorizeURL(returnURL string) bool {
	u, err := url.Parse(returnURL)
	if err != nil || u.Scheme != "" || u.Host != "" || strings.HasPrefix(returnURL, "//") {
		return false
	}
	return u.Path == RouteAuthorize
}

func returnClientID(returnURL string) string {
	u, err := url.Parse(returnURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(oidc.ParamClientID)
}
