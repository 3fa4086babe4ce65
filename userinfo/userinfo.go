// Package userinfo builds the claim set returned by the userinfo endpoint.
package userinfo

import (
	"context"

	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/profile"
	"github.com/jrsteele09/go-oidc-grants/results"
	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	MessageAccountNotFound = "The specified access token is bound to an account that no longer exists."
	MessageAccountInactive = "The specified access token is bound to an account that is no longer active."
)

type Handler struct {
	users   users.Repo
	profile profile.Service
	logger  zerolog.Logger
}

type HandlerOption func(*Handler)

func WithLogger(logger zerolog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a userinfo handler. A nil profile service uses profile.NewDefaultService.
func NewHandler(userRepo users.Repo, profileSvc profile.Service, options ...HandlerOption) *Handler {
	if profileSvc == nil {
		profileSvc = profile.NewDefaultService(nil)
	}
	h := &Handler{
		users:   userRepo,
		profile: profileSvc,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

// Handle resolves the user behind the validated access token principal p and returns its claims.
func (h *Handler) Handle(ctx context.Context, p *principal.Principal) (results.Result, error) {
	user, err := h.users.FindByID(ctx, p.Subject())
	if errors.Is(err, users.ErrNotFound) {
		h.logger.Info().Str("sub", p.Subject()).Msg("userinfo for unknown account")
		return results.Challenge{Error: oidc.ErrorInvalidToken, Description: MessageAccountNotFound}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[userinfo.Handler.Handle] find user")
	}

	active, err := h.profile.IsActive(ctx, user, p)
	if err != nil {
		return nil, errors.Wrap(err, "[userinfo.Handler.Handle] is active")
	}
	if !active {
		h.logger.Info().Str("sub", p.Subject()).Msg("userinfo for inactive account")
		return results.Challenge{Error: oidc.ErrorInvalidToken, Description: MessageAccountInactive}, nil
	}

	claims := map[string]any{
		oidc.ClaimSubject: user.GetID(),
	}
	if p.HasScope(oidc.ScopeRoles) {
		roles, err := h.users.Roles(ctx, user)
		if err != nil {
			return nil, errors.Wrap(err, "[userinfo.Handler.Handle] roles")
		}
		claims[oidc.ClaimRole] = roles
	}

	extra, err := h.profile.Claims(ctx, user, p)
	if err != nil {
		return nil, errors.Wrap(err, "[userinfo.Handler.Handle] profile claims")
	}
	for _, c := range extra {
		if _, exists := claims[c.Type]; !exists {
			claims[c.Type] = c.Value
		}
	}
	return results.UserInfo{Claims: claims}, nil
}
