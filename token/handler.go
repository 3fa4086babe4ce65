package token

import (
	"context"

	"github.com/jrsteele09/go-oidc-grants/configuration"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/results"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const accessTokenLifetimeField = "AccessTokenLifetime"

// Handler runs the token endpoint after the client has been authenticated.
type Handler struct {
	factory *Factory
	config  *configuration.OpenIDConnectConfig
	events  events.Service
	logger  zerolog.Logger
}

type HandlerOption func(*Handler)

func WithLogger(logger zerolog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

func NewHandler(factory *Factory, config *configuration.OpenIDConnectConfig, eventSvc events.Service, options ...HandlerOption) *Handler {
	if eventSvc == nil {
		eventSvc = events.NewService(nil)
	}
	h := &Handler{
		factory: factory,
		config:  config,
		events:  eventSvc,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

// Handle returns SignIn with the principal to issue, or Forbid invalid_grant. Errors other than
// an InvalidGrantError are returned unchanged.
func (h *Handler) Handle(ctx context.Context, req *oidc.Request) (results.Result, error) {
	p, err := h.factory.CreateProvider(req).Principal(ctx, req)
	if err != nil {
		var invalid *InvalidGrantError
		if errors.As(err, &invalid) {
			h.logger.Info().
				Str("clientId", req.ClientID).
				Str("grantType", string(req.GrantType)).
				Str("reason", invalid.Message).
				Msg("token request rejected")
			h.events.Raise(ctx, events.TokenIssuedFailure(req, invalid.Message))
			return results.Forbid{Error: oidc.ErrorInvalidGrant, Description: invalid.Message}, nil
		}
		return nil, err
	}

	principal.ApplyDefaultDestinations(p)
	if err := h.applyAccessTokenLifetime(req.ClientID, p); err != nil {
		return nil, err
	}

	h.events.Raise(ctx, events.TokenIssuedSuccess(events.EndpointToken, p, req))
	return results.SignIn{Principal: p}, nil
}

func (h *Handler) applyAccessTokenLifetime(clientID string, p *principal.Principal) error {
	if h.config == nil {
		return nil
	}
	client, ok := h.config.TryFindClient(clientID)
	if !ok || client.GetAccessTokenLifetime() == nil {
		return nil
	}
	lifetime, err := client.GetAccessTokenLifetime().GetLifetime(accessTokenLifetimeField)
	if err != nil {
		return err
	}
	p.SetAccessTokenLifetime(lifetime)
	return nil
}
