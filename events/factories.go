package events

import (
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
)

// UserLoginSuccess records a successful login. interactive is false for the password grant.
func UserLoginSuccess(username, subjectID, displayName string, interactive bool, clientID string) Event {
	return Event{
		Kind:        KindUserLoginSuccess,
		Category:    CategoryAuthentication,
		Name:        "User Login Success",
		EventType:   TypeSuccess,
		ID:          IDUserLoginSuccess,
		Username:    obfuscate(username),
		SubjectID:   subjectID,
		DisplayName: obfuscate(displayName),
		Endpoint:    loginEndpoint(interactive),
		ClientID:    clientID,
	}
}

// UserLoginFailure records a failed login. reason is kept on the event only and is never shown to the client.
func UserLoginFailure(username, reason string, interactive bool, clientID string) Event {
	return Event{
		Kind:      KindUserLoginFailure,
		Category:  CategoryAuthentication,
		Name:      "User Login Failure",
		EventType: TypeFailure,
		ID:        IDUserLoginFailure,
		Message:   reason,
		Username:  obfuscate(username),
		Endpoint:  loginEndpoint(interactive),
		ClientID:  clientID,
	}
}

func UserLogoutSuccess(subjectID, displayName string) Event {
	return Event{
		Kind:        KindUserLogoutSuccess,
		Category:    CategoryAuthentication,
		Name:        "User Logout Success",
		EventType:   TypeSuccess,
		ID:          IDUserLogoutSuccess,
		SubjectID:   subjectID,
		DisplayName: obfuscate(displayName),
	}
}

// TokenIssuedSuccess records tokens issued for p at endpoint.
func TokenIssuedSuccess(endpoint string, p *principal.Principal, req *oidc.Request) Event {
	evt := Event{
		Kind:      KindTokenIssuedSuccess,
		Category:  CategoryToken,
		Name:      "Token Issued Success",
		EventType: TypeSuccess,
		ID:        IDTokenIssuedSuccess,
		Endpoint:  endpoint,
	}
	if p != nil {
		evt.SubjectID = p.Subject()
	}
	if req != nil {
		evt.ClientID = req.ClientID
		evt.RedirectURI = req.RedirectURI
		evt.GrantType = string(req.GrantType)
		evt.Scopes = req.Scope
	}
	return evt
}

// TokenIssuedFailure records a rejected token request with the error description returned to the client.
func TokenIssuedFailure(req *oidc.Request, errorDescription string) Event {
	evt := Event{
		Kind:      KindTokenIssuedFailure,
		Category:  CategoryToken,
		Name:      "Token Issued Failure",
		EventType: TypeFailure,
		ID:        IDTokenIssuedFailure,
		Endpoint:  EndpointToken,
		Error:     errorDescription,
	}
	if req != nil {
		evt.ClientID = req.ClientID
		evt.RedirectURI = req.RedirectURI
		evt.GrantType = string(req.GrantType)
		evt.Scopes = req.Scope
	}
	return evt
}

func ConsentGranted(subjectID, clientID string, scopes []string) Event {
	return Event{
		Kind:      KindConsentGranted,
		Category:  CategoryGrants,
		Name:      "Consent Granted",
		EventType: TypeInformation,
		ID:        IDConsentGranted,
		SubjectID: subjectID,
		ClientID:  clientID,
		Scopes:    oidc.JoinScopes(scopes),
		Endpoint:  EndpointAuthorize,
	}
}

func ConsentDenied(subjectID, clientID string, scopes []string) Event {
	return Event{
		Kind:      KindConsentDenied,
		Category:  CategoryGrants,
		Name:      "Consent Denied",
		EventType: TypeInformation,
		ID:        IDConsentDenied,
		SubjectID: subjectID,
		ClientID:  clientID,
		Scopes:    oidc.JoinScopes(scopes),
		Endpoint:  EndpointAuthorize,
	}
}

// UnhandledError records an error that reached the host without being handled.
func UnhandledError(endpoint string, err error) Event {
	evt := Event{
		Kind:      KindUnhandledError,
		Category:  CategoryError,
		Name:      "Unhandled Exception",
		EventType: TypeError,
		ID:        IDUnhandledException,
		Endpoint:  endpoint,
	}
	if err != nil {
		evt.Message = err.Error()
	}
	return evt
}
