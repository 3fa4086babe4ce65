package token

import (
	"github.com/jrsteele09/go-oidc-grants/clients"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/profile"
	"github.com/jrsteele09/go-oidc-grants/scopes"
	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/pkg/errors"
)

// Services are the collaborators shared by every provider.
type Services struct {
	Users         users.Repo
	SignIn        users.SignInManager
	Applications  clients.Repo
	Scopes        scopes.Repo
	Profile       profile.Service
	Events        events.Service
	Authenticator Authenticator
}

func (s Services) validate() error {
	switch {
	case s.Users == nil:
		return errors.New("users repo is required")
	case s.SignIn == nil:
		return errors.New("sign in manager is required")
	case s.Applications == nil:
		return errors.New("application repo is required")
	case s.Scopes == nil:
		return errors.New("scope repo is required")
	case s.Authenticator == nil:
		return errors.New("authenticator is required")
	}
	return nil
}

// Factory picks the provider for a token request. It holds no per-request state.
type Factory struct {
	password          *PasswordProvider
	codeExchange      *CodeExchangeProvider
	clientCredentials *ClientCredentialsProvider
	custom            *CustomGrantProvider
}

// NewFactory builds the providers once. A nil Profile or Events service falls back to the
// default profile service and a service that discards events.
func NewFactory(svcs Services, validators ...CustomGrantValidator) (*Factory, error) {
	if err := svcs.validate(); err != nil {
		return nil, errors.Wrap(err, "[NewFactory]")
	}
	if svcs.Profile == nil {
		svcs.Profile = profile.NewDefaultService(nil)
	}
	if svcs.Events == nil {
		svcs.Events = events.NewService(nil)
	}

	custom, err := NewCustomGrantProvider(svcs, validators...)
	if err != nil {
		return nil, err
	}
	return &Factory{
		password:          NewPasswordProvider(svcs),
		codeExchange:      NewCodeExchangeProvider(svcs),
		clientCredentials: NewClientCredentialsProvider(svcs),
		custom:            custom,
	}, nil
}

// CreateProvider returns the provider for the request's grant type. Anything that is not a
// built-in grant goes to the custom grant dispatcher.
func (f *Factory) CreateProvider(req *oidc.Request) Provider {
	switch {
	case req.IsPasswordGrantType():
		return f.password
	case req.IsAuthorizationCodeGrantType(), req.IsDeviceCodeGrantType(), req.IsRefreshTokenGrantType():
		return f.codeExchange
	case req.IsClientCredentialsGrantType():
		return f.clientCredentials
	default:
		return f.custom
	}
}

// CustomGrantTypes lists the extension grants the factory can dispatch.
func (f *Factory) CustomGrantTypes() []oidc.GrantType {
	return f.custom.GrantTypes()
}
