// Package events records the audit trail of logins, token issuance and consent decisions.
package events

import "time"

// EventType classifies an event.
type EventType string

const (
	TypeNone        EventType = "None"
	TypeSuccess     EventType = "Success"
	TypeFailure     EventType = "Failure"
	TypeInformation EventType = "Information"
	TypeError       EventType = "Error"
)

// Event categories.
const (
	CategoryAuthentication = "Authentication"
	CategoryToken          = "Token"
	CategoryGrants         = "Grants"
	CategoryError          = "Error"
)

// Event ids.
const (
	IDUserLoginSuccess   = 1000
	IDUserLoginFailure   = 1001
	IDUserLogoutSuccess  = 1002
	IDTokenIssuedSuccess = 2000
	IDTokenIssuedFailure = 2001
	IDUnhandledException = 3000
	IDConsentGranted     = 4000
	IDConsentDenied      = 4001
)

// Endpoint names recorded on events.
const (
	EndpointAuthorize           = "Authorize"
	EndpointToken               = "Token"
	EndpointDeviceAuthorization = "DeviceAuthorization"
	EndpointDiscovery           = "Discovery"
	EndpointIntrospection       = "Introspection"
	EndpointRevocation          = "Revocation"
	EndpointEndSession          = "Endsession"
	EndpointCheckSession        = "Checksession"
	EndpointUserInfo            = "Userinfo"

	// EndpointUI marks interactive logins through the login page.
	EndpointUI = "UI"
)

// Kind tags the variant of an Event.
type Kind string

const (
	KindUserLoginSuccess   Kind = "UserLoginSuccess"
	KindUserLoginFailure   Kind = "UserLoginFailure"
	KindUserLogoutSuccess  Kind = "UserLogoutSuccess"
	KindTokenIssuedSuccess Kind = "TokenIssuedSuccess"
	KindTokenIssuedFailure Kind = "TokenIssuedFailure"
	KindConsentGranted     Kind = "ConsentGranted"
	KindConsentDenied      Kind = "ConsentDenied"
	KindUnhandledError     Kind = "UnhandledError"
)

// ObfuscatedValue replaces personally identifying values on events.
const ObfuscatedValue = "********"

// Event is a single audit record. Build events with the factory functions so that the
// kind-specific fields and obfuscation are always right.
type Event struct {
	Kind      Kind      `json:"kind"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	EventType EventType `json:"eventType"`
	ID        int       `json:"id"`
	Message   string    `json:"message,omitempty"`

	// Filled in by the Service when the event is raised.
	ActivityID      string    `json:"activityId,omitempty"`
	TimeStamp       time.Time `json:"timeStamp"`
	ProcessID       int       `json:"processId"`
	LocalIPAddress  string    `json:"localIpAddress,omitempty"`
	RemoteIPAddress string    `json:"remoteIpAddress,omitempty"`

	Username       string `json:"username,omitempty"`
	SubjectID      string `json:"subjectId,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	Provider       string `json:"provider,omitempty"`
	ProviderUserID string `json:"providerUserId,omitempty"`
	Endpoint       string `json:"endpoint,omitempty"`
	ClientID       string `json:"clientId,omitempty"`
	RedirectURI    string `json:"redirectUri,omitempty"`
	Scopes         string `json:"scopes,omitempty"`
	GrantType      string `json:"grantType,omitempty"`
	Error          string `json:"error,omitempty"`
}

func obfuscate(value string) string {
	if value == "" {
		return ""
	}
	return ObfuscatedValue
}

func loginEndpoint(interactive bool) string {
	if interactive {
		return EndpointUI
	}
	return EndpointToken
}
