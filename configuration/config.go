// Package configuration describes the clients and scopes registered with the authorization server.
package configuration

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultMinimumAgeToCleanup is used when MinimumAgeToCleanup is not configured.
const DefaultMinimumAgeToCleanup = 6 * time.Hour

// OpenIDConnectConfig is the root configuration. It is built once at startup and is read-only
// afterwards, so concurrent reads need no locking.
type OpenIDConnectConfig struct {
	// URL is the issuer URL.
	URL string `yaml:"url"`

	// Certificate identifiers. The signing identifier doubles as the key id of issued tokens.
	SigningCertificateThumbprint    string `yaml:"signingCertificateThumbprint"`
	EncryptionCertificateThumbprint string `yaml:"encryptionCertificateThumbprint"`

	// SigningKeyFile is a PEM encoded RSA private key. A key is generated when empty.
	SigningKeyFile string `yaml:"signingKeyFile"`

	AuthorizationCodeClients     []*AuthorizationCodeClient     `yaml:"authorizationCodeClients"`
	ClientCredentialsClients     []*ClientCredentialsClient     `yaml:"clientCredentialsClients"`
	ResourceOwnerPasswordClients []*ResourceOwnerPasswordClient `yaml:"resourceOwnerPasswordClients"`
	CustomGrantTypeClients       []*CustomGrantTypeClient       `yaml:"customGrantTypeClients"`

	Scopes           []*Scope `yaml:"scopes"`
	CustomGrantTypes []string `yaml:"customGrantTypes"`

	// MinimumAgeToCleanup is the age after which revoked or expired tokens may be pruned.
	MinimumAgeToCleanup *ConfigurableTimespan `yaml:"minimumAgeToCleanup"`

	indexOnce sync.Once
	clients   []Client
	index     map[string]Client
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*OpenIDConnectConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "[configuration.Load] open config")
	}
	defer f.Close()

	cfg := &OpenIDConnectConfig{}
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "[configuration.Load] parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AllClients returns the clients of every kind. The result is computed once and cached.
func (c *OpenIDConnectConfig) AllClients() []Client {
	c.buildIndex()
	return c.clients
}

// TryFindClient looks a client up by client id.
func (c *OpenIDConnectConfig) TryFindClient(clientID string) (Client, bool) {
	c.buildIndex()
	client, ok := c.index[clientID]
	return client, ok
}

// GetMinimumAgeToCleanup returns the configured cleanup age or DefaultMinimumAgeToCleanup.
func (c *OpenIDConnectConfig) GetMinimumAgeToCleanup() (time.Duration, error) {
	if c.MinimumAgeToCleanup == nil {
		return DefaultMinimumAgeToCleanup, nil
	}
	return c.MinimumAgeToCleanup.GetLifetime("MinimumAgeToCleanup")
}

// Validate checks that client ids are present and unique, confidential clients have a secret
// and every lifetime override is well formed.
func (c *OpenIDConnectConfig) Validate() error {
	if c.URL == "" {
		return &ConfigurationError{Field: "url", Reason: "the issuer url is required"}
	}

	seen := make(map[string]struct{})
	for _, client := range c.collectClients() {
		id := client.GetClientID()
		if id == "" {
			return &ConfigurationError{Field: "clientId", Reason: "a client has no client id"}
		}
		if _, dup := seen[id]; dup {
			return &ConfigurationError{Field: "clientId", Reason: fmt.Sprintf("client id %q is configured more than once", id)}
		}
		seen[id] = struct{}{}

		if client.RequiresSecret() && client.GetClientSecret() == "" {
			return &ConfigurationError{Field: id + ".clientSecret", Reason: "a confidential client must have a secret"}
		}
		if lifetime := client.GetAccessTokenLifetime(); lifetime != nil {
			if _, err := lifetime.GetLifetime(id + ".AccessTokenLifetime"); err != nil {
				return err
			}
		}
	}

	for _, custom := range c.CustomGrantTypeClients {
		if custom.GrantType == "" {
			return &ConfigurationError{Field: custom.ClientID + ".grantType", Reason: "a custom grant type client must name its grant type"}
		}
	}

	for _, scope := range c.Scopes {
		if scope.Name == "" {
			return &ConfigurationError{Field: "scopes", Reason: "a scope has no name"}
		}
	}

	if _, err := c.GetMinimumAgeToCleanup(); err != nil {
		return err
	}
	return nil
}

func (c *OpenIDConnectConfig) buildIndex() {
	c.indexOnce.Do(func() {
		c.clients = c.collectClients()
		c.index = make(map[string]Client, len(c.clients))
		for _, client := range c.clients {
			if _, exists := c.index[client.GetClientID()]; !exists {
				c.index[client.GetClientID()] = client
			}
		}
	})
}

func (c *OpenIDConnectConfig) collectClients() []Client {
	all := make([]Client, 0, len(c.ClientCredentialsClients)+len(c.AuthorizationCodeClients)+
		len(c.ResourceOwnerPasswordClients)+len(c.CustomGrantTypeClients))
	for _, client := range c.ClientCredentialsClients {
		all = append(all, client)
	}
	for _, client := range c.AuthorizationCodeClients {
		all = append(all, client)
	}
	for _, client := range c.ResourceOwnerPasswordClients {
		all = append(all, client)
	}
	for _, client := range c.CustomGrantTypeClients {
		all = append(all, client)
	}
	return all
}
