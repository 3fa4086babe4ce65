package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-grants/authorize"
	"github.com/jrsteele09/go-oidc-grants/internal/utils"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/server/loginsession"
	"github.com/jrsteele09/go-oidc-grants/users"
)

// sessionCookieName holds the securecookie encoded id of the login session.
const sessionCookieName = "oidc_session"

// startSession stores a login session for user and sets the session cookie.
func (s *Server) startSession(ctx context.Context, w http.ResponseWriter, r *http.Request, user users.User) error {
	now := s.nowTime()
	sessionID := uuid.New().String()
	maxAge := s.config.GetMaxSessionAge()
	session := loginsession.Session{
		Subject:     user.GetID(),
		DisplayName: user.GetDisplayName(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(maxAge),
	}
	if err := s.sessions.Upsert(ctx, sessionID, session); err != nil {
		return err
	}
	encoded, err := s.cookies.Encode(sessionCookieName, sessionID)
	if err != nil {
		return err
	}
	s.setSessionCookie(w, r, encoded, int(maxAge.Seconds()))
	return nil
}

// currentSession returns the login session of the request, or "", nil when there is none.
func (s *Server) currentSession(r *http.Request) (string, *loginsession.Session) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	var sessionID string
	if err := s.cookies.Decode(sessionCookieName, cookie.Value, &sessionID); err != nil {
		s.logger.Debug().Err(err).Msg("ignoring invalid session cookie")
		return "", nil
	}
	session, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		return "", nil
	}
	if session.Expired(s.nowTime()) {
		return "", nil
	}
	return sessionID, &session
}

// authorizeSession converts the login session into the authenticated session of the authorize handler.
func (s *Server) authorizeSession(r *http.Request) *authorize.Session {
	_, session := s.currentSession(r)
	if session == nil {
		return nil
	}
	return &authorize.Session{
		Principal: principal.New(principal.NewClaim(oidc.ClaimSubject, session.Subject)),
		IssuedAt:  utils.Ptr(session.CreatedAt),
	}
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if sessionID != "" {
		if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
			s.logger.Error().Err(err).Msg("failed to delete login session")
		}
	}
	s.setSessionCookie(w, r, "", -1) // Delete cookie
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
