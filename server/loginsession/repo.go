// Package loginsession stores the interactive login sessions behind the session cookie.
package loginsession

import (
	"context"
	"time"

	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
)

var ErrNotFound = autherrors.ErrNotFound

type Session struct {
	Subject     string    `json:"sub"`
	DisplayName string    `json:"name,omitempty"`
	CreatedAt   time.Time `json:"createdAt"` // when the user logged in, checked against max_age
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type Repo interface {
	Upsert(ctx context.Context, sessionID string, session Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
}
