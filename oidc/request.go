package oidc

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Request holds the parameters of an authorization or token request.
// One type serves both endpoints since the grant handlers read the same fields.
type Request struct {
	// GrantType selects the claims principal provider at the token endpoint.
	// Example: "password", "client_credentials", "urn:example:saml"
	GrantType GrantType

	// ClientID identifies the OAuth2 client making the request.
	ClientID string

	// ClientSecret is the secret credential for confidential clients.
	// Security: Never log or expose this value
	ClientSecret string

	// Username and Password are only set for the password grant.
	Username string
	Password string

	// Code, DeviceCode and RefreshToken carry the token presented for a code exchange.
	Code         string
	DeviceCode   string
	RefreshToken string

	// Scope is the space-separated list of requested scopes.
	// Example: "openid profile orders.read"
	Scope string

	RedirectURI  string
	ResponseType string
	State        string
	Nonce        string

	// CodeChallenge and CodeChallengeMethod are sent to the authorization endpoint,
	// CodeVerifier to the token endpoint (RFC 7636).
	CodeChallenge       string
	CodeChallengeMethod string
	CodeVerifier        string

	// Prompt is the space-separated prompt parameter.
	// Example: "login consent"
	Prompt string

	// MaxAge is the maximum authentication age in seconds, nil when not requested.
	MaxAge *int64

	// Parameters holds every parameter of the request, including the ones above.
	// Custom grant validators read their own parameters from here.
	Parameters url.Values
}

// ParseRequest builds a Request from raw query or form values.
func ParseRequest(values url.Values) *Request {
	req := &Request{
		GrantType:    GrantType(values.Get(ParamGrantType)),
		ClientID:     values.Get(ParamClientID),
		ClientSecret: values.Get(ParamClientSecret),
		Username:     values.Get(ParamUsername),
		Password:     values.Get(ParamPassword),
		Code:         values.Get(ParamCode),
		DeviceCode:   values.Get(ParamDeviceCode),
		RefreshToken: values.Get(ParamRefreshToken),
		Scope:        values.Get(ParamScope),
		RedirectURI:  values.Get(ParamRedirectURI),
		ResponseType: values.Get(ParamResponseType),
		State:        values.Get(ParamState),
		Nonce:        values.Get(ParamNonce),
		Prompt:       values.Get(ParamPrompt),
		Parameters:   values,

		CodeChallenge:       values.Get(ParamCodeChallenge),
		CodeChallengeMethod: values.Get(ParamCodeChallengeMethod),
		CodeVerifier:        values.Get(ParamCodeVerifier),
	}
	if raw := values.Get(ParamMaxAge); raw != "" {
		if maxAge, err := strconv.ParseInt(raw, 10, 64); err == nil && maxAge >= 0 {
			req.MaxAge = &maxAge
		}
	}
	return req
}

// Scopes returns the requested scopes in request order without duplicates.
func (r *Request) Scopes() []string {
	return splitUnique(r.Scope)
}

// Prompts returns the requested prompt values.
func (r *Request) Prompts() []string {
	return splitUnique(r.Prompt)
}

// HasPrompt reports whether prompt was requested.
func (r *Request) HasPrompt(prompt string) bool {
	return slices.Contains(r.Prompts(), prompt)
}

// HasScope reports whether scope was requested.
func (r *Request) HasScope(scope string) bool {
	return slices.Contains(r.Scopes(), scope)
}

func (r *Request) IsPasswordGrantType() bool {
	return r.GrantType == PasswordGrant
}

func (r *Request) IsAuthorizationCodeGrantType() bool {
	return r.GrantType == AuthorizationCodeGrant
}

func (r *Request) IsDeviceCodeGrantType() bool {
	return r.GrantType == DeviceCodeGrant
}

func (r *Request) IsRefreshTokenGrantType() bool {
	return r.GrantType == RefreshTokenGrant
}

func (r *Request) IsClientCredentialsGrantType() bool {
	return r.GrantType == ClientCredentialsGrant
}

// JoinScopes is the inverse of Request.Scopes.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

func splitUnique(s string) []string {
	fields := strings.Fields(s)
	result := make([]string, 0, len(fields))
	for _, f := range fields {
		if !slices.Contains(result, f) {
			result = append(result, f)
		}
	}
	return result
}
