// Package authorizations holds the permanent grants that let a user skip the consent form.
package authorizations

import (
	"context"
	"slices"
	"time"

	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
)

var ErrNotFound = autherrors.ErrNotFound

// Authorization is a grant of scopes by a subject to an application.
type Authorization struct {
	ID            string    `json:"id"`
	Subject       string    `json:"subject"`
	ApplicationID string    `json:"applicationId"`
	Status        string    `json:"status"` // valid or revoked
	Type          string    `json:"type"`   // permanent or ad-hoc
	Scopes        []string  `json:"scopes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Covers reports whether the authorization includes every scope in scopes.
func (a *Authorization) Covers(scopes []string) bool {
	for _, s := range scopes {
		if !slices.Contains(a.Scopes, s) {
			return false
		}
	}
	return true
}

// Query selects authorizations. Scopes must all be covered by a matching authorization.
type Query struct {
	Subject       string
	ApplicationID string
	Status        string
	Type          string
	Scopes        []string
}

// Repo is the authorization store.
type Repo interface {
	// Find returns matching authorizations ordered by creation time.
	Find(ctx context.Context, q Query) ([]*Authorization, error)
	// Create stores a new valid authorization and returns it with its id set.
	Create(ctx context.Context, subject, applicationID, authorizationType string, scopes []string) (*Authorization, error)
	Get(ctx context.Context, id string) (*Authorization, error)
	Revoke(ctx context.Context, id string) error
}

// Pruner removes authorizations that can no longer be used to skip consent.
type Pruner interface {
	// Prune deletes revoked and ad-hoc authorizations created before threshold and returns how
	// many were removed.
	Prune(ctx context.Context, threshold time.Time) (int, error)
}
