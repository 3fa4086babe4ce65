package main

import (
	"context"
	"fmt"

	fakeauthorizationrepo "github.com/jrsteele09/go-oidc-grants/authorizations/repofake"
	"github.com/jrsteele09/go-oidc-grants/cleanup"
	fakeclientrepo "github.com/jrsteele09/go-oidc-grants/clients/fakerepo"
	"github.com/jrsteele09/go-oidc-grants/configuration"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/internal/config"
	fakescoperepo "github.com/jrsteele09/go-oidc-grants/scopes/repofake"
	"github.com/jrsteele09/go-oidc-grants/seeding"
	"github.com/jrsteele09/go-oidc-grants/server"
	"github.com/jrsteele09/go-oidc-grants/server/loginsession"
	"github.com/jrsteele09/go-oidc-grants/token/jwt"
	"github.com/jrsteele09/go-oidc-grants/token/keys"
	fakeuserrepo "github.com/jrsteele09/go-oidc-grants/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultSigningKeyID = "oidc-signing"

// app is the wired server with the resources it owns.
type app struct {
	server  *server.Server
	cleanup *cleanup.Job
	redis   *redis.Client
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
}

// stores are the in-memory reference stores the demonstration host runs on.
type stores struct {
	apps           *fakeclientrepo.FakeClientRepo
	scopes         *fakescoperepo.FakeScopeRepo
	authorizations *fakeauthorizationrepo.FakeAuthorizationRepo
	users          *fakeuserrepo.FakeUserRepo
}

func newStores() *stores {
	return &stores{
		apps:           fakeclientrepo.NewFakeClientRepo(),
		scopes:         fakescoperepo.NewFakeScopeRepo(),
		authorizations: fakeauthorizationrepo.NewFakeAuthorizationRepo(),
		users:          fakeuserrepo.NewFakeUserRepo(),
	}
}

// loadOIDCConfig reads the client and scope file. The issuer defaults to BASE_URL.
func loadOIDCConfig(c config.Config) (*configuration.OpenIDConnectConfig, error) {
	oidcConfig, err := configuration.Load(c.GetOIDCConfigFile())
	if err != nil {
		return nil, err
	}
	if oidcConfig.URL == "" {
		oidcConfig.URL = c.GetBaseURL()
	}
	return oidcConfig, nil
}

// seed registers the configured clients and scopes into the stores.
func seed(ctx context.Context, oidcConfig *configuration.OpenIDConnectConfig, s *stores) error {
	return seeding.NewRunner(s.apps, s.scopes, oidcConfig, seeding.WithLogger(log.Logger)).Run(ctx)
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	oidcConfig, err := loadOIDCConfig(c)
	if err != nil {
		return nil, err
	}

	s := newStores()
	if err := seed(ctx, oidcConfig, s); err != nil {
		return nil, err
	}
	if path := c.GetUsersFile(); path != "" {
		loaded, err := s.users.LoadFile(path)
		if err != nil {
			return nil, err
		}
		log.Info().Int("users", loaded).Str("file", path).Msg("loaded accounts")
	}

	keyID := oidcConfig.SigningCertificateThumbprint
	if keyID == "" {
		keyID = defaultSigningKeyID
	}
	keyPair, err := keys.LoadOrGenerateKeyPair(keyID, oidcConfig.SigningKeyFile)
	if err != nil {
		return nil, err
	}

	a := &app{}
	sinks := []events.Sink{events.NewLogSink(log.Logger)}
	metricsSink, err := events.NewMetricsSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, metricsSink)

	var revocations jwt.RevocationList = jwt.NewInMemoryRevocationList()
	var sessions loginsession.Repo = loginsession.NewInMemoryLoginSessionRepo()
	if addr := c.GetRedisAddr(); addr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: addr})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
		}
		revocations = jwt.NewRedisRevocationList(a.redis, "")
		sessions = loginsession.NewRedisLoginSessionRepo(a.redis, "")
		sinks = append(sinks, events.NewRedisSink(a.redis, c.GetEventsRedisKey()))
		log.Info().Str("addr", addr).Msg("using redis for revocations, sessions and events")
	}

	a.server, err = server.New(server.Dependencies{
		Config:         c,
		OIDC:           oidcConfig,
		Users:          s.users,
		SignIn:         s.users,
		Applications:   s.apps,
		Authorizations: s.authorizations,
		Scopes:         s.scopes,
		Events:         events.NewService(events.NewMultiSink(sinks...), events.WithLogger(log.Logger)),
		Signer:         keys.NewKeyPairSigner(keyPair),
		Revocations:    revocations,
		Sessions:       sessions,
		Metrics:        prometheus.DefaultGatherer,
		Logger:         log.Logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.cleanup, err = cleanup.NewJob(s.authorizations, oidcConfig, cleanup.WithLogger(log.Logger))
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}
