package authorize

import (
	"slices"

	"github.com/jrsteele09/go-oidc-grants/clients"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/results"
)

// ValidRedirectURI reports whether uri is one of the application's registered redirect uris.
// The comparison is exact and case sensitive.
func ValidRedirectURI(app *clients.Application, uri string) bool {
	return uri != "" && slices.Contains(app.RedirectURIs, uri)
}

// ValidPostLogoutRedirectURI is ValidRedirectURI for the logout endpoint.
func ValidPostLogoutRedirectURI(app *clients.Application, uri string) bool {
	return uri != "" && slices.Contains(app.PostLogoutRedirectURIs, uri)
}

// ValidateRequest checks an authorization request against the application's registration.
// It returns nil when the request may go on to Handler.Handle.
func ValidateRequest(app *clients.Application, req *oidc.Request) *results.Forbid {
	if !ValidRedirectURI(app, req.RedirectURI) {
		return &results.Forbid{Error: oidc.ErrorInvalidRequest, Description: "The specified 'redirect_uri' is not valid for this client application."}
	}
	if !app.HasPermission(oidc.PermissionEndpointAuthorization) {
		return &results.Forbid{Error: oidc.ErrorUnauthorizedClient, Description: "This client application is not allowed to use the authorization endpoint."}
	}
	if req.ResponseType != oidc.ResponseTypeCode {
		return &results.Forbid{Error: oidc.ErrorUnsupportedResponse, Description: "The specified 'response_type' is not supported."}
	}
	if !app.HasPermission(oidc.PermissionResponseTypeCode) || !app.CanUseGrantType(oidc.AuthorizationCodeGrant) {
		return &results.Forbid{Error: oidc.ErrorUnauthorizedClient, Description: "The client application is not allowed to use the specified 'response_type'."}
	}

	if forbid := ValidateScopes(app, req.Scopes()); forbid != nil {
		return forbid
	}

	if req.CodeChallenge == "" {
		if slices.Contains(app.Requirements, oidc.RequirementPKCE) {
			return &results.Forbid{Error: oidc.ErrorInvalidRequest, Description: "The mandatory 'code_challenge' parameter is missing."}
		}
		return nil
	}
	switch req.CodeChallengeMethod {
	case "", oidc.CodeChallengeMethodPlain, oidc.CodeChallengeMethodS256:
		return nil
	default:
		return &results.Forbid{Error: oidc.ErrorInvalidRequest, Description: "The specified 'code_challenge_method' is not supported."}
	}
}

// ValidateScopes checks that the application holds a permission for every requested scope.
// openid needs no permission and offline_access needs the refresh_token grant.
func ValidateScopes(app *clients.Application, scopes []string) *results.Forbid {
	for _, scope := range scopes {
		switch scope {
		case oidc.ScopeOpenID:
		case oidc.ScopeOfflineAccess:
			if !app.CanUseGrantType(oidc.RefreshTokenGrant) {
				return &results.Forbid{Error: oidc.ErrorInvalidRequest, Description: "The client application is not allowed to use the 'offline_access' scope."}
			}
		default:
			if !app.HasPermission(oidc.ScopePermission(scope)) {
				return &results.Forbid{Error: oidc.ErrorInvalidScope, Description: "This client application is not allowed to use the specified scope."}
			}
		}
	}
	return nil
}
