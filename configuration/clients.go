package configuration

import "github.com/jrsteele09/go-oidc-grants/oidc"

// Client is implemented by every client descriptor kind.
type Client interface {
	GetClientID() string
	GetClientScopes() []string
	GetAccessTokenLifetime() *ConfigurableTimespan
	GetClientSecret() string
	// RequiresSecret reports whether the client is confidential.
	RequiresSecret() bool
}

// ClientBase holds the fields shared by all client kinds.
type ClientBase struct {
	ClientID string `yaml:"clientId"`

	// ClientScopes are the API scopes the client may request, i.e. booking-api, finance-api.
	ClientScopes []string `yaml:"clientScopes"`

	// AccessTokenLifetime overrides the issuer default for this client.
	AccessTokenLifetime *ConfigurableTimespan `yaml:"accessTokenLifetime"`
}

func (c *ClientBase) GetClientID() string                           { return c.ClientID }
func (c *ClientBase) GetClientScopes() []string                     { return c.ClientScopes }
func (c *ClientBase) GetAccessTokenLifetime() *ConfigurableTimespan { return c.AccessTokenLifetime }

// AuthorizationCodeClient is an interactive UI client using the authorization code flow with PKCE.
type AuthorizationCodeClient struct {
	ClientBase `yaml:",inline"`

	BaseURL string `yaml:"baseUrl"`

	// RedirectURIs default to BaseURL when empty.
	RedirectURIs           []string `yaml:"redirectUris"`
	PostLogoutRedirectURIs []string `yaml:"postLogoutRedirectUris"`
}

func (c *AuthorizationCodeClient) GetClientSecret() string { return "" }
func (c *AuthorizationCodeClient) RequiresSecret() bool    { return false }

// ClientCredentialsClient is a machine-to-machine API client.
type ClientCredentialsClient struct {
	ClientBase   `yaml:",inline"`
	ClientSecret string `yaml:"clientSecret"`
}

func (c *ClientCredentialsClient) GetClientSecret() string { return c.ClientSecret }
func (c *ClientCredentialsClient) RequiresSecret() bool    { return true }

// ResourceOwnerPasswordClient is a test automation client using the password grant.
type ResourceOwnerPasswordClient struct {
	ClientBase   `yaml:",inline"`
	ClientSecret string `yaml:"clientSecret"`
}

func (c *ResourceOwnerPasswordClient) GetClientSecret() string { return c.ClientSecret }
func (c *ResourceOwnerPasswordClient) RequiresSecret() bool    { return true }

// CustomGrantTypeClient uses a grant type registered with the custom grant provider.
type CustomGrantTypeClient struct {
	ClientBase   `yaml:",inline"`
	GrantType    oidc.GrantType  `yaml:"grantType"`
	ClientSecret string          `yaml:"clientSecret"`
	ClientType   oidc.ClientType `yaml:"clientType"`
	ClientURIs   []string        `yaml:"clientUris"`
}

func (c *CustomGrantTypeClient) GetClientSecret() string { return c.ClientSecret }

func (c *CustomGrantTypeClient) RequiresSecret() bool {
	return c.ClientType == oidc.ClientTypeConfidential
}

// Scope is a scope descriptor with the resources (audiences) it grants access to.
type Scope struct {
	Name      string   `yaml:"name"`
	Resources []string `yaml:"resources"`
}
