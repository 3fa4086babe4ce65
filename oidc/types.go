package oidc

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines which claims principal provider handles the request.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, client_id, redirect_uri, code_verifier (if PKCE)
	AuthorizationCodeGrant GrantType = "authorization_code"

	// ClientCredentialsGrant allows machine-to-machine authentication.
	// There is no end user, the client is the subject of the issued token.
	ClientCredentialsGrant GrantType = "client_credentials"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	RefreshTokenGrant GrantType = "refresh_token"

	// PasswordGrant is the resource owner password credentials grant.
	// Token request includes: username, password, client_id, scope
	// Intended for test automation clients only.
	PasswordGrant GrantType = "password"

	// DeviceCodeGrant exchanges a device code once the user has approved it.
	DeviceCodeGrant GrantType = "urn:ietf:params:oauth:grant-type:device_code"
)

// Prompt values of the prompt authorization parameter.
const (
	PromptNone          = "none"
	PromptLogin         = "login"
	PromptConsent       = "consent"
	PromptSelectAccount = "select_account"
)

// ConsentType decides whether the user is asked to approve a client.
type ConsentType string

const (
	// ConsentExternal means authorizations are granted out of band (e.g. by an administrator).
	ConsentExternal ConsentType = "external"
	// ConsentImplicit never shows the consent form.
	ConsentImplicit ConsentType = "implicit"
	// ConsentExplicit shows the consent form until a permanent authorization exists.
	ConsentExplicit ConsentType = "explicit"
	// ConsentSystematic shows the consent form on every request.
	ConsentSystematic ConsentType = "systematic"
)

// ClientType is the OAuth 2.0 client type.
type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // Can keep secrets (server-side apps)
	ClientTypePublic       ClientType = "public"       // Cannot keep secrets (SPAs, mobile apps)
)

// Standard scopes.
const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeRoles         = "roles"
	ScopeOfflineAccess = "offline_access"
)

// Standard claim types.
const (
	ClaimSubject           = "sub"
	ClaimName              = "name"
	ClaimEmail             = "email"
	ClaimRole              = "role"
	ClaimPreferredUsername = "preferred_username"
	ClaimGivenName         = "given_name"
	ClaimFamilyName        = "family_name"

	// ClaimSecurityStamp is a secret value and never leaves the server.
	ClaimSecurityStamp = "AspNet.Identity.SecurityStamp"
)

// Error codes returned in the error parameter of an OAuth 2.0 response.
const (
	ErrorInvalidGrant         = "invalid_grant"
	ErrorInvalidToken         = "invalid_token"
	ErrorInvalidClient        = "invalid_client"
	ErrorInvalidRequest       = "invalid_request"
	ErrorInvalidScope         = "invalid_scope"
	ErrorUnauthorizedClient   = "unauthorized_client"
	ErrorUnsupportedGrantType = "unsupported_grant_type"
	ErrorUnsupportedResponse  = "unsupported_response_type"
	ErrorLoginRequired        = "login_required"
	ErrorConsentRequired      = "consent_required"
	ErrorAccessDenied         = "access_denied"
	ErrorServerError          = "server_error"
)

// Authorization statuses and types.
const (
	StatusValid   = "valid"
	StatusRevoked = "revoked"

	AuthorizationTypePermanent = "permanent"
	AuthorizationTypeAdHoc     = "ad-hoc"
)

// Request parameter names.
const (
	ParamGrantType    = "grant_type"
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
	ParamUsername     = "username"
	ParamPassword     = "password"
	ParamCode         = "code"
	ParamDeviceCode   = "device_code"
	ParamRefreshToken = "refresh_token"
	ParamScope        = "scope"
	ParamRedirectURI  = "redirect_uri"
	ParamPrompt       = "prompt"
	ParamMaxAge       = "max_age"
	ParamResponseType = "response_type"
	ParamState        = "state"
	ParamNonce        = "nonce"

	ParamCodeChallenge       = "code_challenge"
	ParamCodeChallengeMethod = "code_challenge_method"
	ParamCodeVerifier        = "code_verifier"

	ParamToken                 = "token"
	ParamTokenTypeHint         = "token_type_hint"
	ParamAccessToken           = "access_token"
	ParamPostLogoutRedirectURI = "post_logout_redirect_uri"
)

// PKCE code challenge methods.
const (
	CodeChallengeMethodPlain = "plain"
	CodeChallengeMethodS256  = "S256"
)

// ResponseTypeCode is the only response type the authorization endpoint serves.
const ResponseTypeCode = "code"
