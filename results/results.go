// Package results holds the terminal outcomes of the authorize, token and userinfo handlers.
// The hosting framework renders them; the handlers never write responses themselves.
package results

import "github.com/jrsteele09/go-oidc-grants/principal"

// Result is one of SignIn, Forbid, Challenge, LoginRedirect, ConsentForm or UserInfo.
type Result interface {
	result()
}

// SignIn hands the principal to the token issuing pipeline.
type SignIn struct {
	Principal *principal.Principal
}

// Forbid is an OAuth 2.0 error returned to the client (e.g. invalid_grant, login_required).
type Forbid struct {
	Error       string
	Description string
}

// Challenge rejects the presented token (e.g. invalid_token at the userinfo endpoint).
type Challenge struct {
	Error       string
	Description string
}

// LoginRedirect sends the user agent to the interactive login page.
// ReturnURL is where the login page sends the user back to.
type LoginRedirect struct {
	ReturnURL string
}

// ConsentForm asks the user to approve the requested scopes.
type ConsentForm struct {
	ApplicationName string `json:"applicationName"`
	Scope           string `json:"scope"`
}

// UserInfo is the flat claim set returned by the userinfo endpoint.
type UserInfo struct {
	Claims map[string]any
}

func (SignIn) result()        {}
func (Forbid) result()        {}
func (Challenge) result()     {}
func (LoginRedirect) result() {}
func (ConsentForm) result()   {}
func (UserInfo) result()      {}
