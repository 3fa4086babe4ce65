package principal

import "github.com/jrsteele09/go-oidc-grants/oidc"

// DefaultDestinations is the claim destination policy applied before a principal is signed in.
//
// name, email and role always go to the access token and also go to the identity token
// when the profile, email or roles scope was granted. The security stamp goes nowhere.
// Everything else goes to the access token only.
func DefaultDestinations(c Claim, p *Principal) []Destination {
	switch c.Type {
	case oidc.ClaimName:
		return withIdentityIf(p.HasScope(oidc.ScopeProfile))
	case oidc.ClaimEmail:
		return withIdentityIf(p.HasScope(oidc.ScopeEmail))
	case oidc.ClaimRole:
		return withIdentityIf(p.HasScope(oidc.ScopeRoles))
	case oidc.ClaimSecurityStamp:
		return nil
	default:
		return []Destination{AccessToken}
	}
}

// ApplyDefaultDestinations sets DefaultDestinations on every claim of p.
// Claims that already carry destinations keep them.
func ApplyDefaultDestinations(p *Principal) {
	p.SetDestinations(func(c Claim, p *Principal) []Destination {
		if len(c.Destinations) > 0 {
			return c.Destinations
		}
		return DefaultDestinations(c, p)
	})
}

func withIdentityIf(ok bool) []Destination {
	if ok {
		return []Destination{AccessToken, IdentityToken}
	}
	return []Destination{AccessToken}
}
