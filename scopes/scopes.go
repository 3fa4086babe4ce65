// Package scopes holds the registered scopes and the resources they grant access to.
package scopes

import (
	"context"

	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
)

var ErrNotFound = autherrors.ErrNotFound

type Scope struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
	Resources   []string `json:"resources,omitempty"`
}

// Repo is the scope store.
type Repo interface {
	// ListResources returns the distinct resources of the named scopes. Unknown scopes are ignored.
	ListResources(ctx context.Context, names []string) ([]string, error)
	FindByName(ctx context.Context, name string) (*Scope, error)
	List(ctx context.Context) ([]*Scope, error)
	Create(ctx context.Context, scope *Scope) error
	Update(ctx context.Context, scope *Scope) error
	Delete(ctx context.Context, name string) error
}
