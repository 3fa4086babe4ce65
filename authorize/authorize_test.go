package authorize_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	fakeauthorizationrepo "github.com/jrsteele09/go-oidc-grants/authorizations/repofake"
	"github.com/jrsteele09/go-oidc-grants/authorize"
	"github.com/jrsteele09/go-oidc-grants/clients"
	fakeclientrepo "github.com/jrsteele09/go-oidc-grants/clients/fakerepo"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/results"
	"github.com/jrsteele09/go-oidc-grants/scopes"
	fakescoperepo "github.com/jrsteele09/go-oidc-grants/scopes/repofake"
	"github.com/jrsteele09/go-oidc-grants/users"
	fakeuserrepo "github.com/jrsteele09/go-oidc-grants/users/repofake"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type testFixture struct {
	ctx            context.Context
	users          *fakeuserrepo.FakeUserRepo
	apps           *fakeclientrepo.FakeClientRepo
	authorizations *fakeauthorizationrepo.FakeAuthorizationRepo
	sink           *events.MemorySink
	handler        *authorize.Handler
	alice          *users.Account
	session        *authorize.Session
}

func setupTestFixture(t *testing.T, options ...authorize.HandlerOption) *testFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := fakeuserrepo.NewFakeUserRepo()
	alice := &users.Account{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, userRepo.AddUser(alice, "password"))

	appRepo := fakeclientrepo.NewFakeClientRepo()
	for _, app := range []*clients.Application{
		{ClientID: "implicit", DisplayName: "Implicit App", ConsentType: oidc.ConsentImplicit},
		{ClientID: "external", DisplayName: "External App", ConsentType: oidc.ConsentExternal},
		{ClientID: "explicit", DisplayName: "Explicit App", ConsentType: oidc.ConsentExplicit},
		{ClientID: "systematic", ConsentType: oidc.ConsentSystematic},
	} {
		require.NoError(t, appRepo.Create(ctx, app))
	}

	scopeRepo := fakescoperepo.NewFakeScopeRepo()
	require.NoError(t, scopeRepo.Create(ctx, &scopes.Scope{Name: "orders.read", Resources: []string{"orders-api"}}))

	sink := events.NewMemorySink()
	authRepo := fakeauthorizationrepo.NewFakeAuthorizationRepo()
	options = append([]authorize.HandlerOption{authorize.WithNowTime(func() time.Time { return fixedNow })}, options...)
	h, err := authorize.NewHandler(authorize.Services{
		Users:          userRepo,
		SignIn:         userRepo,
		Applications:   appRepo,
		Authorizations: authRepo,
		Scopes:         scopeRepo,
		Events:         events.NewService(sink),
	}, options...)
	require.NoError(t, err)

	issuedAt := fixedNow.Add(-10 * time.Minute)
	return &testFixture{
		ctx:            ctx,
		users:          userRepo,
		apps:           appRepo,
		authorizations: authRepo,
		sink:           sink,
		handler:        h,
		alice:          alice,
		session: &authorize.Session{
			Principal: principal.New(principal.NewClaim(oidc.ClaimSubject, alice.ID)),
			IssuedAt:  &issuedAt,
		},
	}
}

func (f *testFixture) grantAuthorization(t *testing.T, clientID string, scopes ...string) string {
	t.Helper()
	app, err := f.apps.FindByClientID(f.ctx, clientID)
	require.NoError(t, err)
	auth, err := f.authorizations.Create(f.ctx, f.alice.ID, app.ID, oidc.AuthorizationTypePermanent, scopes)
	require.NoError(t, err)
	return auth.ID
}

func request(clientID string, extra ...string) (*oidc.Request, authorize.Endpoint) {
	params := url.Values{
		oidc.ParamClientID:     {clientID},
		oidc.ParamResponseType: {oidc.ResponseTypeCode},
		oidc.ParamScope:        {"openid orders.read"},
	}
	for i := 0; i+1 < len(extra); i += 2 {
		params.Set(extra[i], extra[i+1])
	}
	return oidc.ParseRequest(params), authorize.Endpoint{PathBase: "/auth", Path: "/connect/authorize", Parameters: params}
}

func TestDecideConsent(t *testing.T) {
	none := &oidc.Request{Prompt: oidc.PromptNone}
	consent := &oidc.Request{Prompt: oidc.PromptConsent}
	plain := &oidc.Request{}

	tests := []struct {
		name          string
		consentType   oidc.ConsentType
		authorization bool
		req           *oidc.Request
		want          authorize.Decision
	}{
		{"external without authorization", oidc.ConsentExternal, false, plain, authorize.DecisionForbidNotAllowed},
		{"external without authorization and prompt none", oidc.ConsentExternal, false, none, authorize.DecisionForbidNotAllowed},
		{"external with authorization", oidc.ConsentExternal, true, consent, authorize.DecisionSignIn},
		{"implicit", oidc.ConsentImplicit, false, consent, authorize.DecisionSignIn},
		{"explicit with authorization", oidc.ConsentExplicit, true, plain, authorize.DecisionSignIn},
		{"explicit with authorization and prompt consent", oidc.ConsentExplicit, true, consent, authorize.DecisionConsentForm},
		{"explicit without authorization", oidc.ConsentExplicit, false, plain, authorize.DecisionConsentForm},
		{"explicit with prompt none", oidc.ConsentExplicit, false, none, authorize.DecisionForbidConsentRequired},
		{"systematic with authorization", oidc.ConsentSystematic, true, plain, authorize.DecisionConsentForm},
		{"systematic with prompt none", oidc.ConsentSystematic, true, none, authorize.DecisionForbidConsentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, authorize.DecideConsent(tt.consentType, tt.authorization, tt.req))
		})
	}
}

func TestUnauthenticated(t *testing.T) {
	f := setupTestFixture(t)

	req, endpoint := request("implicit", oidc.ParamState, "xyz")
	result, err := f.handler.Handle(f.ctx, req, endpoint, nil)
	require.NoError(t, err)
	require.Equal(t, results.LoginRedirect{
		ReturnURL: "/auth/connect/authorize?client_id=implicit&response_type=code&scope=openid+orders.read&state=xyz",
	}, result)

	req, endpoint = request("implicit", oidc.ParamPrompt, oidc.PromptNone)
	result, err = f.handler.Handle(f.ctx, req, endpoint, nil)
	require.NoError(t, err)
	require.Equal(t, results.Forbid{Error: oidc.ErrorLoginRequired, Description: "The user is not logged in."}, result)
}

func TestPromptLoginStripsOnlyLogin(t *testing.T) {
	f := setupTestFixture(t)

	req, endpoint := request("implicit", oidc.ParamPrompt, "login consent")
	result, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	redirect, ok := result.(results.LoginRedirect)
	require.True(t, ok)
	u, err := url.Parse(redirect.ReturnURL)
	require.NoError(t, err)
	require.Equal(t, "consent", u.Query().Get(oidc.ParamPrompt))
	require.Equal(t, "implicit", u.Query().Get(oidc.ParamClientID))

	// The caller's parameters are left untouched.
	require.Equal(t, "login consent", endpoint.Parameters.Get(oidc.ParamPrompt))

	req, endpoint = request("implicit", oidc.ParamPrompt, "login")
	result, err = f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.Equal(t, results.LoginRedirect{
		ReturnURL: "/auth/connect/authorize?client_id=implicit&response_type=code&scope=openid+orders.read",
	}, result)
}

func TestMaxAge(t *testing.T) {
	tests := []struct {
		name            string
		maxAge          string
		unknownIssuedAt bool
		signIn          bool
	}{
		{"login older than max_age", "300", false, false},
		{"login exactly max_age old", "600", false, true},
		{"login younger than max_age", "900", false, true},
		{"unknown login time", "0", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			if tt.unknownIssuedAt {
				f.session.IssuedAt = nil
			}
			req, endpoint := request("implicit", oidc.ParamMaxAge, tt.maxAge)
			result, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
			require.NoError(t, err)
			if tt.signIn {
				require.IsType(t, results.SignIn{}, result)
			} else {
				require.IsType(t, results.LoginRedirect{}, result)
			}
		})
	}
}

func TestMaxAgeWithPromptNone(t *testing.T) {
	f := setupTestFixture(t)
	req, endpoint := request("implicit", oidc.ParamMaxAge, "60", oidc.ParamPrompt, oidc.PromptNone)

	result, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.Equal(t, results.Forbid{Error: oidc.ErrorLoginRequired, Description: "The user is not logged in."}, result)
}

func TestImplicitConsentSignsIn(t *testing.T) {
	f := setupTestFixture(t)
	req, endpoint := request("implicit", oidc.ParamNonce, "n-1")

	result, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	signIn, ok := result.(results.SignIn)
	require.True(t, ok)
	p := signIn.Principal
	require.Equal(t, f.alice.ID, p.Subject())
	require.Equal(t, []string{oidc.ScopeOpenID, "orders.read"}, p.Scopes())
	require.Equal(t, []string{"orders-api"}, p.Resources())
	require.NotEmpty(t, p.AuthorizationID())
	require.Equal(t, "n-1", p.Property(principal.PropertyNonce))
	require.NotEmpty(t, p.ClaimsFor(principal.AccessToken))

	granted := f.sink.OfKind(events.KindConsentGranted)
	require.Len(t, granted, 1)
	require.Equal(t, "implicit", granted[0].ClientID)

	result, err = f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.Equal(t, p.AuthorizationID(), result.(results.SignIn).Principal.AuthorizationID())
	require.Len(t, f.sink.OfKind(events.KindConsentGranted), 1)
}

func TestExternalConsent(t *testing.T) {
	f := setupTestFixture(t)
	req, endpoint := request("external")

	result, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.Equal(t, results.Forbid{
		Error:       oidc.ErrorConsentRequired,
		Description: "The logged in user is not allowed to access this client application.",
	}, result)

	authID := f.grantAuthorization(t, "external", oidc.ScopeOpenID, "orders.read")
	result, err = f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.Equal(t, authID, result.(results.SignIn).Principal.AuthorizationID())
	require.Empty(t, f.sink.OfKind(events.KindConsentGranted))
}

func TestExplicitConsent(t *testing.T) {
	f := setupTestFixture(t)

	req, endpoint := request("explicit")
	result, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.Equal(t, results.ConsentForm{ApplicationName: "Explicit App", Scope: "openid orders.read"}, result)

	req, endpoint = request("explicit", oidc.ParamPrompt, oidc.PromptNone)
	result, err = f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.Equal(t, results.Forbid{Error: oidc.ErrorConsentRequired, Description: "Interactive user consent is required."}, result)

	f.grantAuthorization(t, "explicit", oidc.ScopeOpenID, "orders.read", oidc.ScopeProfile)
	req, endpoint = request("explicit")
	result, err = f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.IsType(t, results.SignIn{}, result)

	req, endpoint = request("explicit", oidc.ParamPrompt, oidc.PromptConsent)
	result, err = f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.IsType(t, results.ConsentForm{}, result)
}

func TestAuthorizationMustCoverRequestedScopes(t *testing.T) {
	f := setupTestFixture(t)
	f.grantAuthorization(t, "explicit", oidc.ScopeOpenID)

	req, endpoint := request("explicit")
	result, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.IsType(t, results.ConsentForm{}, result)
}

func TestSystematicConsent(t *testing.T) {
	f := setupTestFixture(t)
	f.grantAuthorization(t, "systematic", oidc.ScopeOpenID, "orders.read")

	req, endpoint := request("systematic")
	result, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.Equal(t, results.ConsentForm{ApplicationName: "systematic", Scope: "openid orders.read"}, result)
}

func TestInvariantErrors(t *testing.T) {
	f := setupTestFixture(t)

	req, endpoint := request("ghost")
	_, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.ErrorIs(t, err, authorize.ErrApplicationNotFound)

	require.NoError(t, f.users.Delete(f.alice.ID))
	req, endpoint = request("implicit")
	_, err = f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.ErrorIs(t, err, authorize.ErrUserNotFound)
}

func TestAcceptAndDeny(t *testing.T) {
	f := setupTestFixture(t)
	req, _ := request("explicit")

	result, err := f.handler.Accept(f.ctx, req, f.session)
	require.NoError(t, err)
	require.IsType(t, results.SignIn{}, result)
	require.Len(t, f.sink.OfKind(events.KindConsentGranted), 1)

	result, err = f.handler.Deny(f.ctx, req, f.session)
	require.NoError(t, err)
	require.Equal(t, results.Forbid{Error: oidc.ErrorAccessDenied, Description: "The authorization was denied by the end user."}, result)
	denied := f.sink.OfKind(events.KindConsentDenied)
	require.Len(t, denied, 1)
	require.Equal(t, f.alice.ID, denied[0].SubjectID)

	req, _ = request("external")
	result, err = f.handler.Accept(f.ctx, req, f.session)
	require.NoError(t, err)
	require.IsType(t, results.Forbid{}, result)

	result, err = f.handler.Accept(f.ctx, req, nil)
	require.NoError(t, err)
	require.Equal(t, results.Forbid{Error: oidc.ErrorLoginRequired, Description: "The user is not logged in."}, result)
}

func TestPostAuthenticateHook(t *testing.T) {
	hook := authorize.PostAuthenticateFunc(func(_ context.Context, p *principal.Principal, req *oidc.Request) error {
		p.AddClaims(principal.NewClaim("amr", "pwd", principal.AccessToken))
		return nil
	})
	f := setupTestFixture(t, authorize.WithPostAuthenticateHandler(hook))

	req, endpoint := request("implicit")
	result, err := f.handler.Handle(f.ctx, req, endpoint, f.session)
	require.NoError(t, err)
	require.Equal(t, []string{"pwd"}, result.(results.SignIn).Principal.FindAll("amr"))
}

func TestValidateRequest(t *testing.T) {
	app := &clients.Application{
		ClientID:     "spa",
		RedirectURIs: []string{"https://app.example.com/cb"},
		Permissions: []string{
			oidc.PermissionEndpointAuthorization,
			oidc.PermissionResponseTypeCode,
			oidc.GrantTypePermission(oidc.AuthorizationCodeGrant),
			oidc.PermissionScopeProfile,
		},
		Requirements: []string{oidc.RequirementPKCE},
	}
	valid := func() *oidc.Request {
		return &oidc.Request{
			ClientID:      "spa",
			RedirectURI:   "https://app.example.com/cb",
			ResponseType:  oidc.ResponseTypeCode,
			Scope:         "openid profile",
			CodeChallenge: "challenge",
		}
	}
	require.Nil(t, authorize.ValidateRequest(app, valid()))

	tests := []struct {
		name    string
		mutate  func(*oidc.Request)
		errCode string
	}{
		{"redirect uri differs in case", func(r *oidc.Request) { r.RedirectURI = "https://APP.example.com/cb" }, oidc.ErrorInvalidRequest},
		{"token response type", func(r *oidc.Request) { r.ResponseType = "token" }, oidc.ErrorUnsupportedResponse},
		{"scope not permitted", func(r *oidc.Request) { r.Scope = "openid email" }, oidc.ErrorInvalidScope},
		{"offline access without refresh grant", func(r *oidc.Request) { r.Scope = "openid offline_access" }, oidc.ErrorInvalidRequest},
		{"missing code challenge", func(r *oidc.Request) { r.CodeChallenge = "" }, oidc.ErrorInvalidRequest},
		{"unknown challenge method", func(r *oidc.Request) { r.CodeChallengeMethod = "S512" }, oidc.ErrorInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			forbid := authorize.ValidateRequest(app, req)
			require.NotNil(t, forbid)
			require.Equal(t, tt.errCode, forbid.Error)
		})
	}
}
