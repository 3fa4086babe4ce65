package oidc

// TokenResponse is the token endpoint response body (RFC 6749 section 5.1).
type TokenResponse struct {
	// AccessToken carries the claims destined for the access token.
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds. A per-client
	// AccessTokenLifetime override is reflected here.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// IDToken carries the claims destined for the identity token.
	// Only present when the openid scope was granted.
	IDToken *string `json:"id_token,omitempty"`

	// RefreshToken is only present when the offline_access scope was granted.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope is the space-separated list of granted scopes.
	Scope string `json:"scope,omitempty"`
}

// ErrorResponse is the body of an OAuth 2.0 error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
