package clients

import (
	"context"

	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
)

// ErrNotFound is returned when no application has the requested client id.
var ErrNotFound = autherrors.ErrNotFound

// Repo is the application store.
type Repo interface {
	FindByClientID(ctx context.Context, clientID string) (*Application, error)
	List(ctx context.Context) ([]*Application, error)
	Create(ctx context.Context, app *Application) error
	Update(ctx context.Context, app *Application) error
	Delete(ctx context.Context, clientID string) error
}
