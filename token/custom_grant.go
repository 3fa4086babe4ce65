package token

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/pkg/errors"
)

// CustomGrantValidator handles one extension grant type.
type CustomGrantValidator interface {
	GrantType() oidc.GrantType
	// Validate returns the principal for req. user is nil when the grant has no end user.
	Validate(ctx context.Context, req *oidc.Request) (p *principal.Principal, user users.User, err error)
}

// CustomGrantValidatorFunc adapts a function into a CustomGrantValidator for grantType.
func CustomGrantValidatorFunc(grantType oidc.GrantType, fn func(context.Context, *oidc.Request) (*principal.Principal, users.User, error)) CustomGrantValidator {
	return validatorFunc{grantType: grantType, fn: fn}
}

type validatorFunc struct {
	grantType oidc.GrantType
	fn        func(context.Context, *oidc.Request) (*principal.Principal, users.User, error)
}

func (v validatorFunc) GrantType() oidc.GrantType { return v.grantType }

func (v validatorFunc) Validate(ctx context.Context, req *oidc.Request) (*principal.Principal, users.User, error) {
	return v.fn(ctx, req)
}

// CustomGrantProvider dispatches extension grants to their validator by exact grant type.
type CustomGrantProvider struct {
	svcs       Services
	validators map[oidc.GrantType]CustomGrantValidator
}

var _ Provider = (*CustomGrantProvider)(nil)

// NewCustomGrantProvider indexes validators by grant type. Two validators for the same grant type
// is an error.
func NewCustomGrantProvider(svcs Services, validators ...CustomGrantValidator) (*CustomGrantProvider, error) {
	index := make(map[oidc.GrantType]CustomGrantValidator, len(validators))
	for _, v := range validators {
		gt := v.GrantType()
		if gt == "" {
			return nil, errors.New("[NewCustomGrantProvider] validator has no grant type")
		}
		if _, exists := index[gt]; exists {
			return nil, errors.Errorf("[NewCustomGrantProvider] duplicate validator for grant type %s", gt)
		}
		index[gt] = v
	}
	return &CustomGrantProvider{svcs: svcs, validators: index}, nil
}

// GrantTypes lists the registered extension grants.
func (cp *CustomGrantProvider) GrantTypes() []oidc.GrantType {
	types := make([]oidc.GrantType, 0, len(cp.validators))
	for gt := range cp.validators {
		types = append(types, gt)
	}
	return types
}

func (cp *CustomGrantProvider) Principal(ctx context.Context, req *oidc.Request) (*principal.Principal, error) {
	if req.GrantType == "" {
		return nil, NewInvalidGrantError(MessageNoGrantType)
	}
	validator, ok := cp.validators[req.GrantType]
	if !ok {
		return nil, NewInvalidGrantError(fmt.Sprintf(messageGrantNotSupported, req.GrantType))
	}

	p, user, err := validator.Validate(ctx, req)
	if err != nil {
		var invalid *InvalidGrantError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "[CustomGrantProvider.Principal] validate %s", req.GrantType)
	}
	if p == nil {
		return nil, NewInvalidGrantError(fmt.Sprintf(messageNoPrincipalForGrant, req.GrantType))
	}

	p.SetScopes(req.Scopes())
	if user != nil {
		if err := mergeProfileClaims(ctx, cp.svcs.Profile, user, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}
