package users

import (
	"context"

	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
	"github.com/jrsteele09/go-oidc-grants/principal"
)

// ErrNotFound is returned by Repo lookups when no user matches.
var ErrNotFound = autherrors.ErrNotFound

// Repo is the identity store.
type Repo interface {
	FindByName(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	Roles(ctx context.Context, user User) ([]string, error)
}

// SignInStatus is the outcome of a password check.
type SignInStatus int

const (
	SignInFailed SignInStatus = iota
	SignInSucceeded
	SignInLockedOut
	SignInNotAllowed
)

// SignInResult is returned by SignInManager.CheckPasswordSignIn.
type SignInResult struct {
	Status SignInStatus
}

func (r SignInResult) Succeeded() bool    { return r.Status == SignInSucceeded }
func (r SignInResult) IsLockedOut() bool  { return r.Status == SignInLockedOut }
func (r SignInResult) IsNotAllowed() bool { return r.Status == SignInNotAllowed }

// SignInManager checks credentials and builds the base principal of a user.
type SignInManager interface {
	// CheckPasswordSignIn verifies password, counting failures towards lockout when lockoutOnFailure is set.
	CheckPasswordSignIn(ctx context.Context, user User, password string, lockoutOnFailure bool) (SignInResult, error)
	// CreateUserPrincipal returns a principal with the user's identity claims and roles.
	CreateUserPrincipal(ctx context.Context, user User) (*principal.Principal, error)
	// CanSignIn reports whether the user may currently sign in (confirmed, not blocked, not locked out).
	CanSignIn(ctx context.Context, user User) (bool, error)
}
