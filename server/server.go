// Package server hosts the authorization, token and userinfo endpoints over net/http.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/jrsteele09/go-oidc-grants/authorizations"
	"github.com/jrsteele09/go-oidc-grants/authorize"
	"github.com/jrsteele09/go-oidc-grants/clients"
	"github.com/jrsteele09/go-oidc-grants/configuration"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/internal/config"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/profile"
	"github.com/jrsteele09/go-oidc-grants/scopes"
	"github.com/jrsteele09/go-oidc-grants/server/loginsession"
	"github.com/jrsteele09/go-oidc-grants/token"
	"github.com/jrsteele09/go-oidc-grants/token/jwt"
	"github.com/jrsteele09/go-oidc-grants/token/keys"
	"github.com/jrsteele09/go-oidc-grants/userinfo"
	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Dependencies are the stores and collaborators the server is built from.
type Dependencies struct {
	Config         config.Config
	OIDC           *configuration.OpenIDConnectConfig
	Users          users.Repo
	SignIn         users.SignInManager
	Applications   clients.Repo
	Authorizations authorizations.Repo
	Scopes         scopes.Repo
	Profile        profile.Service
	Events         events.Service
	Signer         *keys.KeyPairSigner
	Revocations    jwt.RevocationList
	Sessions       loginsession.Repo
	Validators     []token.CustomGrantValidator

	// Metrics is served on /metrics. Defaults to prometheus.DefaultGatherer.
	Metrics prometheus.Gatherer
	Logger  zerolog.Logger
	NowTime func() time.Time
}

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	handler    http.Handler
	routes     []string
	config     config.Config
	oidcConfig *configuration.OpenIDConnectConfig
	issuer     string
	logger     zerolog.Logger
	nowTime    func() time.Time

	users        users.Repo
	signIn       users.SignInManager
	applications clients.Repo
	events       events.Service
	sessions     loginsession.Repo
	signer       *keys.KeyPairSigner
	cookies      *securecookie.SecureCookie
	metrics      prometheus.Gatherer
	customGrants []oidc.GrantType

	authorize *authorize.Handler
	tokens    *token.Handler
	userInfo  *userinfo.Handler
	jwtIssuer *jwt.Issuer
	inspector *jwt.Inspector
}

func New(deps Dependencies) (*Server, error) {
	if deps.Config == nil || deps.OIDC == nil || deps.Signer == nil {
		return nil, fmt.Errorf("[server.New] config, OIDC config and signer are required")
	}
	if deps.Events == nil {
		deps.Events = events.NewService(nil)
	}
	if deps.Revocations == nil {
		deps.Revocations = jwt.NewInMemoryRevocationList()
	}
	if deps.Sessions == nil {
		deps.Sessions = loginsession.NewInMemoryLoginSessionRepo()
	}
	if deps.Metrics == nil {
		deps.Metrics = prometheus.DefaultGatherer
	}
	if deps.NowTime == nil {
		deps.NowTime = time.Now
	}

	issuer := strings.TrimSuffix(deps.OIDC.URL, "/")
	authenticator := jwt.NewAuthenticator(deps.Signer, issuer, deps.Revocations,
		jwt.WithAuthenticatorNowTime(deps.NowTime),
		jwt.WithAuthorizations(deps.Authorizations),
	)
	factory, err := token.NewFactory(token.Services{
		Users:         deps.Users,
		SignIn:        deps.SignIn,
		Applications:  deps.Applications,
		Scopes:        deps.Scopes,
		Profile:       deps.Profile,
		Events:        deps.Events,
		Authenticator: authenticator,
	}, deps.Validators...)
	if err != nil {
		return nil, fmt.Errorf("[server.New] failed to create the token provider factory: %w", err)
	}

	authorizeHandler, err := authorize.NewHandler(authorize.Services{
		Users:          deps.Users,
		SignIn:         deps.SignIn,
		Applications:   deps.Applications,
		Authorizations: deps.Authorizations,
		Scopes:         deps.Scopes,
		Events:         deps.Events,
	}, authorize.WithNowTime(deps.NowTime), authorize.WithLogger(deps.Logger))
	if err != nil {
		return nil, fmt.Errorf("[server.New] failed to create the authorize handler: %w", err)
	}

	hashKey := deps.Config.GetSessionHashKey()
	if len(hashKey) == 0 {
		deps.Logger.Warn().Msg("SESSION_HASH_KEY is not set, sessions will not survive a restart")
		hashKey = securecookie.GenerateRandomKey(32)
	}
	var blockKey []byte
	if key := deps.Config.GetSessionBlockKey(); len(key) > 0 {
		blockKey = key
	}
	cookies := securecookie.New(hashKey, blockKey)
	cookies.MaxAge(int(deps.Config.GetMaxSessionAge().Seconds()))

	s := &Server{
		env:        deps.Config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     deps.Config,
		oidcConfig: deps.OIDC,
		issuer:     issuer,
		logger:     deps.Logger,
		nowTime:    deps.NowTime,

		users:        deps.Users,
		signIn:       deps.SignIn,
		applications: deps.Applications,
		events:       deps.Events,
		sessions:     deps.Sessions,
		signer:       deps.Signer,
		cookies:      cookies,
		metrics:      deps.Metrics,
		customGrants: factory.CustomGrantTypes(),

		authorize: authorizeHandler,
		tokens:    token.NewHandler(factory, deps.OIDC, deps.Events, token.WithLogger(deps.Logger)),
		userInfo:  userinfo.NewHandler(deps.Users, deps.Profile, userinfo.WithLogger(deps.Logger)),
		jwtIssuer: jwt.NewIssuer(deps.Signer, jwt.Config{
			Issuer:             issuer,
			AccessTokenExpiry:  deps.Config.GetDefaultAccessTokenExpiry(),
			IDTokenExpiry:      deps.Config.GetDefaultIDTokenExpiry(),
			RefreshTokenExpiry: deps.Config.GetDefaultRefreshTokenExpiry(),
			CodeExpiry:         deps.Config.GetAuthCodeTimeout(),
		}, jwt.WithIssuerNowTime(deps.NowTime)),
		inspector: jwt.NewInspector(deps.Signer, issuer, deps.Revocations, jwt.WithInspectorNowTime(deps.NowTime)),
	}

	s.initRoutes()
	s.logRoutes()
	s.handler = middleware.RequestID(middleware.RealIP(middleware.Recoverer(s.requestInfo(s.mux))))
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.logger.Debug().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
