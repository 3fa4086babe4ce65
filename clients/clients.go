package clients

import (
	"slices"

	"github.com/jrsteele09/go-oidc-grants/oidc"
	"golang.org/x/crypto/bcrypt"
)

// Application is a registered OAuth client as held by the application store.
type Application struct {
	ID                     string           `json:"id"`       // Store identifier, referenced by authorizations
	ClientID               string           `json:"clientId"` // Public client identifier
	ClientSecret           string           `json:"-"`        // bcrypt hash, see HashSecret
	DisplayName            string           `json:"displayName"`
	Type                   oidc.ClientType  `json:"type"` // public or confidential
	ConsentType            oidc.ConsentType `json:"consentType"`
	Permissions            []string         `json:"permissions"`
	Requirements           []string         `json:"requirements,omitempty"`
	RedirectURIs           []string         `json:"redirectURIs,omitempty"`
	PostLogoutRedirectURIs []string         `json:"postLogoutRedirectURIs,omitempty"`
}

// IsPublic returns true if the client is a public client
func (a *Application) IsPublic() bool {
	return a.Type == oidc.ClientTypePublic
}

// HasPermission reports whether the application was granted permission.
func (a *Application) HasPermission(permission string) bool {
	return slices.Contains(a.Permissions, permission)
}

// CanUseGrantType reports whether the application may use grantType at the token endpoint.
func (a *Application) CanUseGrantType(grantType oidc.GrantType) bool {
	return a.HasPermission(oidc.GrantTypePermission(grantType))
}

// GetDisplayName returns the display name, falling back to the client id.
func (a *Application) GetDisplayName() string {
	if a.DisplayName == "" {
		return a.ClientID
	}
	return a.DisplayName
}

// HashSecret hashes a plain client secret for storage in Application.ClientSecret.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckSecret reports whether secret matches the stored hash. Applications without a stored
// secret never match.
func (a *Application) CheckSecret(secret string) bool {
	if a.ClientSecret == "" || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.ClientSecret), []byte(secret)) == nil
}
