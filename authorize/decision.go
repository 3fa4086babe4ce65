package authorize

import "github.com/jrsteele09/go-oidc-grants/oidc"

// Decision is the outcome of the consent decision table.
type Decision int

const (
	// DecisionForbidNotAllowed rejects users without an authorization for an external application.
	DecisionForbidNotAllowed Decision = iota
	// DecisionSignIn skips the consent form.
	DecisionSignIn
	// DecisionForbidConsentRequired rejects prompt=none when consent has to be asked for.
	DecisionForbidConsentRequired
	// DecisionConsentForm renders the consent form.
	DecisionConsentForm
)

func (d Decision) String() string {
	switch d {
	case DecisionForbidNotAllowed:
		return "forbid_not_allowed"
	case DecisionSignIn:
		return "sign_in"
	case DecisionForbidConsentRequired:
		return "forbid_consent_required"
	case DecisionConsentForm:
		return "consent_form"
	default:
		return "unknown"
	}
}

// DecideConsent applies the consent table for an authenticated user. The rows are checked in
// order and the first match wins:
//
//	external,  no authorization                        -> forbid (not allowed)
//	implicit; external with authorization;
//	explicit with authorization and no prompt=consent  -> sign in
//	explicit or systematic with prompt=none            -> forbid (consent required)
//	anything else                                      -> consent form
func DecideConsent(consentType oidc.ConsentType, hasAuthorization bool, req *oidc.Request) Decision {
	promptConsent := req.HasPrompt(oidc.PromptConsent)
	promptNone := req.HasPrompt(oidc.PromptNone)

	switch {
	case consentType == oidc.ConsentExternal && !hasAuthorization:
		return DecisionForbidNotAllowed
	case consentType == oidc.ConsentImplicit,
		consentType == oidc.ConsentExternal && hasAuthorization,
		consentType == oidc.ConsentExplicit && hasAuthorization && !promptConsent:
		return DecisionSignIn
	case (consentType == oidc.ConsentExplicit || consentType == oidc.ConsentSystematic) && promptNone:
		return DecisionForbidConsentRequired
	default:
		return DecisionConsentForm
	}
}
