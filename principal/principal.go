// Package principal holds the claims principal built for a single token or authorize request.
package principal

import (
	"slices"
	"time"

	"github.com/jrsteele09/go-oidc-grants/oidc"
)

// Destination names the token a claim is serialized into.
type Destination string

const (
	AccessToken   Destination = "access_token"
	IdentityToken Destination = "id_token"
)

// Claim is a single (type, value) pair with the tokens it is allowed into.
// A claim without destinations is never serialized.
type Claim struct {
	Type         string
	Value        string
	Destinations []Destination
}

// NewClaim creates a claim with the given destinations.
func NewClaim(claimType, value string, destinations ...Destination) Claim {
	return Claim{Type: claimType, Value: value, Destinations: destinations}
}

// HasDestination reports whether the claim is allowed into dest.
func (c Claim) HasDestination(dest Destination) bool {
	return slices.Contains(c.Destinations, dest)
}

// Principal is the authenticated identity handed to the token issuing pipeline.
// It is request scoped and not safe for concurrent mutation.
type Principal struct {
	claims              []Claim
	scopes              []string
	resources           []string
	authorizationID     string
	accessTokenLifetime time.Duration
	properties          map[string]string
}

// New creates a principal carrying claims.
func New(claims ...Claim) *Principal {
	p := &Principal{}
	p.AddClaims(claims...)
	return p
}

// Claims returns a copy of all claims in insertion order.
func (p *Principal) Claims() []Claim {
	out := make([]Claim, len(p.claims))
	copy(out, p.claims)
	return out
}

// AddClaim appends a claim without destinations.
func (p *Principal) AddClaim(claimType, value string) {
	p.claims = append(p.claims, Claim{Type: claimType, Value: value})
}

// AddClaims appends claims, keeping any destinations already set on them.
func (p *Principal) AddClaims(claims ...Claim) {
	for _, c := range claims {
		c.Destinations = slices.Clone(c.Destinations)
		p.claims = append(p.claims, c)
	}
}

// SetClaim replaces every claim of claimType with a single claim.
func (p *Principal) SetClaim(claimType, value string) {
	p.RemoveClaims(claimType)
	p.AddClaim(claimType, value)
}

// RemoveClaims drops every claim of claimType.
func (p *Principal) RemoveClaims(claimType string) {
	p.claims = slices.DeleteFunc(p.claims, func(c Claim) bool { return c.Type == claimType })
}

// FindFirst returns the value of the first claim of claimType.
func (p *Principal) FindFirst(claimType string) (string, bool) {
	for _, c := range p.claims {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// FindAll returns the values of every claim of claimType.
func (p *Principal) FindAll(claimType string) []string {
	var values []string
	for _, c := range p.claims {
		if c.Type == claimType {
			values = append(values, c.Value)
		}
	}
	return values
}

// Subject returns the sub claim, or an empty string.
func (p *Principal) Subject() string {
	sub, _ := p.FindFirst(oidc.ClaimSubject)
	return sub
}

// SetDestinations replaces the destinations of every claim with the ones chosen by fn.
func (p *Principal) SetDestinations(fn func(Claim, *Principal) []Destination) {
	for i := range p.claims {
		p.claims[i].Destinations = fn(p.claims[i], p)
	}
}

// ClaimsFor returns the claims allowed into dest.
func (p *Principal) ClaimsFor(dest Destination) []Claim {
	var out []Claim
	for _, c := range p.claims {
		if c.HasDestination(dest) {
			out = append(out, c)
		}
	}
	return out
}

func (p *Principal) Scopes() []string {
	return slices.Clone(p.scopes)
}

func (p *Principal) SetScopes(scopes []string) {
	p.scopes = slices.Clone(scopes)
}

func (p *Principal) HasScope(scope string) bool {
	return slices.Contains(p.scopes, scope)
}

func (p *Principal) Resources() []string {
	return slices.Clone(p.resources)
}

func (p *Principal) SetResources(resources []string) {
	p.resources = slices.Clone(resources)
}

func (p *Principal) AuthorizationID() string {
	return p.authorizationID
}

func (p *Principal) SetAuthorizationID(id string) {
	p.authorizationID = id
}

// AccessTokenLifetime returns the lifetime override, false when the issuer default applies.
func (p *Principal) AccessTokenLifetime() (time.Duration, bool) {
	return p.accessTokenLifetime, p.accessTokenLifetime > 0
}

func (p *Principal) SetAccessTokenLifetime(lifetime time.Duration) {
	p.accessTokenLifetime = lifetime
}

// PropertyNonce holds the nonce of the authorization request the principal was created for.
const PropertyNonce = "nonce"

// Property returns a value carried alongside the claims that never goes into a token by itself,
// such as the nonce of the authorization request.
func (p *Principal) Property(key string) string {
	return p.properties[key]
}

func (p *Principal) SetProperty(key, value string) {
	if p.properties == nil {
		p.properties = make(map[string]string)
	}
	p.properties[key] = value
}
