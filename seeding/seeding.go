// Package seeding registers the configured clients and scopes with the application and scope
// stores, and removes the ones that are no longer configured.
package seeding

import (
	"context"

	"github.com/jrsteele09/go-oidc-grants/clients"
	"github.com/jrsteele09/go-oidc-grants/configuration"
	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/scopes"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Runner seeds the stores from an OpenIDConnectConfig. It is meant to run once at startup.
type Runner struct {
	apps   clients.Repo
	scopes scopes.Repo
	config *configuration.OpenIDConnectConfig
	logger zerolog.Logger
}

type RunnerOption func(*Runner)

func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(apps clients.Repo, scopeRepo scopes.Repo, config *configuration.OpenIDConnectConfig, options ...RunnerOption) *Runner {
	r := &Runner{
		apps:   apps,
		scopes: scopeRepo,
		config: config,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Run registers applications, registers scopes, then deletes applications and scopes that are
// not in the configuration, in that order.
func (r *Runner) Run(ctx context.Context) error {
	if r.config == nil {
		return nil
	}
	r.logger.Info().Msg("seeding clients and scopes")
	if err := r.registerApplications(ctx); err != nil {
		return err
	}
	if err := r.registerScopes(ctx); err != nil {
		return err
	}
	if err := r.deleteApplications(ctx); err != nil {
		return err
	}
	return r.deleteScopes(ctx)
}

func (r *Runner) registerApplications(ctx context.Context) error {
	if len(r.config.AuthorizationCodeClients) > 0 {
		r.logger.Info().Msg("registering authorization code clients")
	}
	for _, c := range r.config.AuthorizationCodeClients {
		if err := r.saveApplication(ctx, AuthorizationCodeApplication(c), ""); err != nil {
			return err
		}
	}

	if len(r.config.ClientCredentialsClients) > 0 {
		r.logger.Info().Msg("registering client credentials clients")
	}
	for _, c := range r.config.ClientCredentialsClients {
		if err := r.saveApplication(ctx, ClientCredentialsApplication(c), c.ClientSecret); err != nil {
			return err
		}
	}

	if len(r.config.ResourceOwnerPasswordClients) > 0 {
		r.logger.Info().Msg("registering resource owner password clients")
	}
	for _, c := range r.config.ResourceOwnerPasswordClients {
		if err := r.saveApplication(ctx, ResourceOwnerPasswordApplication(c), c.ClientSecret); err != nil {
			return err
		}
	}

	if len(r.config.CustomGrantTypeClients) > 0 {
		r.logger.Info().Msg("registering custom grant type clients")
	}
	for _, c := range r.config.CustomGrantTypeClients {
		if err := r.saveApplication(ctx, CustomGrantTypeApplication(c), c.ClientSecret); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) saveApplication(ctx context.Context, app *clients.Application, secret string) error {
	if app.ClientID == "" {
		return nil
	}
	if secret != "" {
		hash, err := clients.HashSecret(secret)
		if err != nil {
			return errors.Wrapf(err, "[seeding.Runner] hash secret of %s", app.ClientID)
		}
		app.ClientSecret = hash
	}

	existing, err := r.apps.FindByClientID(ctx, app.ClientID)
	switch {
	case autherrors.IsNotFound(err):
		r.logger.Info().Str("clientId", app.ClientID).Msg("creating client")
		return errors.Wrapf(r.apps.Create(ctx, app), "[seeding.Runner] create client %s", app.ClientID)
	case err != nil:
		return errors.Wrapf(err, "[seeding.Runner] find client %s", app.ClientID)
	}

	r.logger.Info().Str("clientId", app.ClientID).Msg("updating client")
	app.ID = existing.ID
	app.DisplayName = existing.DisplayName
	return errors.Wrapf(r.apps.Update(ctx, app), "[seeding.Runner] update client %s", app.ClientID)
}

func (r *Runner) registerScopes(ctx context.Context) error {
	if len(r.config.Scopes) == 0 {
		return nil
	}
	r.logger.Info().Msg("registering scopes")
	for _, sc := range r.config.Scopes {
		scope := &scopes.Scope{Name: sc.Name, Resources: append([]string(nil), sc.Resources...)}
		_, err := r.scopes.FindByName(ctx, sc.Name)
		switch {
		case autherrors.IsNotFound(err):
			r.logger.Info().Str("scope", sc.Name).Msg("creating scope")
			err = r.scopes.Create(ctx, scope)
		case err == nil:
			r.logger.Info().Str("scope", sc.Name).Msg("updating scope")
			err = r.scopes.Update(ctx, scope)
		}
		if err != nil {
			return errors.Wrapf(err, "[seeding.Runner] save scope %s", sc.Name)
		}
	}
	return nil
}

func (r *Runner) deleteApplications(ctx context.Context) error {
	r.logger.Info().Msg("checking for deleted clients")
	apps, err := r.apps.List(ctx)
	if err != nil {
		return errors.Wrap(err, "[seeding.Runner] list clients")
	}
	for _, app := range apps {
		if _, configured := r.config.TryFindClient(app.ClientID); configured {
			continue
		}
		r.logger.Info().Str("clientId", app.ClientID).Msg("deleting client")
		if err := r.apps.Delete(ctx, app.ClientID); err != nil {
			return errors.Wrapf(err, "[seeding.Runner] delete client %s", app.ClientID)
		}
	}
	return nil
}

// deleteScopes leaves the store untouched when no scopes are configured at all.
func (r *Runner) deleteScopes(ctx context.Context) error {
	if r.config.Scopes == nil {
		return nil
	}
	r.logger.Info().Msg("checking for deleted scopes")
	configured := make(map[string]struct{}, len(r.config.Scopes))
	for _, sc := range r.config.Scopes {
		configured[sc.Name] = struct{}{}
	}

	stored, err := r.scopes.List(ctx)
	if err != nil {
		return errors.Wrap(err, "[seeding.Runner] list scopes")
	}
	for _, scope := range stored {
		if _, ok := configured[scope.Name]; ok {
			continue
		}
		r.logger.Info().Str("scope", scope.Name).Msg("deleting scope")
		if err := r.scopes.Delete(ctx, scope.Name); err != nil {
			return errors.Wrapf(err, "[seeding.Runner] delete scope %s", scope.Name)
		}
	}
	return nil
}

func scopePermissions(clientScopes []string) []string {
	permissions := make([]string, 0, len(clientScopes))
	for _, scope := range clientScopes {
		permissions = append(permissions, oidc.ScopePermission(scope))
	}
	return permissions
}
