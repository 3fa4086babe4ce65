// Package authorize decides what the authorization endpoint does with an authenticated (or not)
// user: sign in, ask for login, ask for consent or refuse.
package authorize

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-oidc-grants/authorizations"
	"github.com/jrsteele09/go-oidc-grants/clients"
	"github.com/jrsteele09/go-oidc-grants/events"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/results"
	"github.com/jrsteele09/go-oidc-grants/scopes"
	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	MessageNotLoggedIn     = "The user is not logged in."
	MessageNotAllowed      = "The logged in user is not allowed to access this client application."
	MessageConsentRequired = "Interactive user consent is required."
	MessageConsentDenied   = "The authorization was denied by the end user."
)

var (
	// ErrApplicationNotFound means the application of an already validated request is gone.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrUserNotFound means the user of an authenticated session is gone.
	ErrUserNotFound = errors.New("user not found")
)

// Endpoint is where the authorization request was received.
type Endpoint struct {
	PathBase   string
	Path       string
	Parameters url.Values
}

// URL rebuilds the request url from the endpoint and params.
func (e Endpoint) URL(params url.Values) string {
	u := e.PathBase + e.Path
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// Session is the authenticated cookie session. A nil *Session means not authenticated.
type Session struct {
	Principal *principal.Principal
	// IssuedAt is when the user logged in, nil when unknown.
	IssuedAt *time.Time
}

// PostAuthenticateHandler can adjust the principal after the sign in decision was made.
type PostAuthenticateHandler interface {
	PostAuthenticate(ctx context.Context, p *principal.Principal, req *oidc.Request) error
}

// PostAuthenticateFunc adapts a function to a PostAuthenticateHandler.
type PostAuthenticateFunc func(ctx context.Context, p *principal.Principal, req *oidc.Request) error

func (f PostAuthenticateFunc) PostAuthenticate(ctx context.Context, p *principal.Principal, req *oidc.Request) error {
	return f(ctx, p, req)
}

// NoopPostAuthenticate leaves the principal unchanged.
var NoopPostAuthenticate PostAuthenticateHandler = PostAuthenticateFunc(func(context.Context, *principal.Principal, *oidc.Request) error {
	return nil
})

// Services are the stores the handler reads from.
type Services struct {
	Users          users.Repo
	SignIn         users.SignInManager
	Applications   clients.Repo
	Authorizations authorizations.Repo
	Scopes         scopes.Repo
	Events         events.Service
}

type Handler struct {
	svcs    Services
	hook    PostAuthenticateHandler
	nowTime func() time.Time
	logger  zerolog.Logger
}

type HandlerOption func(*Handler)

func WithPostAuthenticateHandler(hook PostAuthenticateHandler) HandlerOption {
	return func(h *Handler) {
		h.hook = hook
	}
}

func WithNowTime(nowTime func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.nowTime = nowTime
	}
}

func WithLogger(logger zerolog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

func NewHandler(svcs Services, options ...HandlerOption) (*Handler, error) {
	if svcs.Users == nil || svcs.SignIn == nil || svcs.Applications == nil || svcs.Authorizations == nil || svcs.Scopes == nil {
		return nil, errors.New("[authorize.NewHandler] users, sign in, applications, authorizations and scopes are required")
	}
	if svcs.Events == nil {
		svcs.Events = events.NewService(nil)
	}
	h := &Handler{
		svcs:    svcs,
		hook:    NoopPostAuthenticate,
		nowTime: time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(h)
	}
	return h, nil
}

// Handle processes an authorization request that already passed ValidateRequest.
// session is nil when the user agent is not authenticated.
func (h *Handler) Handle(ctx context.Context, req *oidc.Request, endpoint Endpoint, session *Session) (results.Result, error) {
	if session == nil || session.Principal == nil {
		return h.unauthenticated(req, endpoint), nil
	}

	if req.HasPrompt(oidc.PromptLogin) {
		return results.LoginRedirect{ReturnURL: endpoint.URL(withoutLoginPrompt(endpoint.Parameters, req))}, nil
	}

	if h.tooOld(req, session) {
		return h.unauthenticated(req, endpoint), nil
	}

	user, app, auths, err := h.load(ctx, req, session)
	if err != nil {
		return nil, err
	}

	decision := DecideConsent(app.ConsentType, len(auths) > 0, req)
	h.logger.Debug().
		Str("clientId", app.ClientID).
		Str("consentType", string(app.ConsentType)).
		Int("authorizations", len(auths)).
		Stringer("decision", decision).
		Msg("authorization request")

	switch decision {
	case DecisionForbidNotAllowed:
		return results.Forbid{Error: oidc.ErrorConsentRequired, Description: MessageNotAllowed}, nil
	case DecisionSignIn:
		return h.signIn(ctx, req, user, app, auths)
	case DecisionForbidConsentRequired:
		return results.Forbid{Error: oidc.ErrorConsentRequired, Description: MessageConsentRequired}, nil
	default:
		return results.ConsentForm{ApplicationName: app.GetDisplayName(), Scope: req.Scope}, nil
	}
}

// Accept signs in after the user approved the consent form, creating a permanent authorization.
func (h *Handler) Accept(ctx context.Context, req *oidc.Request, session *Session) (results.Result, error) {
	if session == nil || session.Principal == nil {
		return results.Forbid{Error: oidc.ErrorLoginRequired, Description: MessageNotLoggedIn}, nil
	}
	user, app, auths, err := h.load(ctx, req, session)
	if err != nil {
		return nil, err
	}
	if app.ConsentType == oidc.ConsentExternal && len(auths) == 0 {
		return results.Forbid{Error: oidc.ErrorConsentRequired, Description: MessageNotAllowed}, nil
	}
	return h.signIn(ctx, req, user, app, auths)
}

// Deny refuses the request after the user rejected the consent form.
func (h *Handler) Deny(ctx context.Context, req *oidc.Request, session *Session) (results.Result, error) {
	subject := ""
	if session != nil && session.Principal != nil {
		subject = session.Principal.Subject()
	}
	h.svcs.Events.Raise(ctx, events.ConsentDenied(subject, req.ClientID, req.Scopes()))
	return results.Forbid{Error: oidc.ErrorAccessDenied, Description: MessageConsentDenied}, nil
}

func (h *Handler) unauthenticated(req *oidc.Request, endpoint Endpoint) results.Result {
	if req.HasPrompt(oidc.PromptNone) {
		return results.Forbid{Error: oidc.ErrorLoginRequired, Description: MessageNotLoggedIn}
	}
	return results.LoginRedirect{ReturnURL: endpoint.URL(endpoint.Parameters)}
}

// tooOld reports whether max_age has passed since the user logged in. An unknown login time
// never counts as too old.
func (h *Handler) tooOld(req *oidc.Request, session *Session) bool {
	if req.MaxAge == nil || session.IssuedAt == nil {
		return false
	}
	return h.nowTime().Sub(*session.IssuedAt) > time.Duration(*req.MaxAge)*time.Second
}

func (h *Handler) load(ctx context.Context, req *oidc.Request, session *Session) (users.User, *clients.Application, []*authorizations.Authorization, error) {
	user, err := h.svcs.Users.FindByID(ctx, session.Principal.Subject())
	if errors.Is(err, users.ErrNotFound) {
		return nil, nil, nil, errors.Wrapf(ErrUserNotFound, "[authorize.Handler] subject %s", session.Principal.Subject())
	}
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "[authorize.Handler] find user")
	}

	app, err := h.svcs.Applications.FindByClientID(ctx, req.ClientID)
	if errors.Is(err, clients.ErrNotFound) {
		return nil, nil, nil, errors.Wrapf(ErrApplicationNotFound, "[authorize.Handler] client %s", req.ClientID)
	}
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "[authorize.Handler] find application")
	}

	auths, err := h.svcs.Authorizations.Find(ctx, authorizations.Query{
		Subject:       user.GetID(),
		ApplicationID: app.ID,
		Status:        oidc.StatusValid,
		Type:          oidc.AuthorizationTypePermanent,
		Scopes:        req.Scopes(),
	})
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "[authorize.Handler] find authorizations")
	}
	return user, app, auths, nil
}

func (h *Handler) signIn(ctx context.Context, req *oidc.Request, user users.User, app *clients.Application, auths []*authorizations.Authorization) (results.Result, error) {
	p, err := h.svcs.SignIn.CreateUserPrincipal(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[authorize.Handler.signIn] create principal")
	}
	requested := req.Scopes()
	p.SetScopes(requested)
	resources, err := h.svcs.Scopes.ListResources(ctx, requested)
	if err != nil {
		return nil, errors.Wrap(err, "[authorize.Handler.signIn] list resources")
	}
	p.SetResources(resources)

	var auth *authorizations.Authorization
	if len(auths) > 0 {
		auth = auths[len(auths)-1]
	} else {
		auth, err = h.svcs.Authorizations.Create(ctx, user.GetID(), app.ID, oidc.AuthorizationTypePermanent, requested)
		if err != nil {
			return nil, errors.Wrap(err, "[authorize.Handler.signIn] create authorization")
		}
		h.svcs.Events.Raise(ctx, events.ConsentGranted(user.GetID(), app.ClientID, requested))
	}
	p.SetAuthorizationID(auth.ID)
	if req.Nonce != "" {
		p.SetProperty(principal.PropertyNonce, req.Nonce)
	}

	principal.ApplyDefaultDestinations(p)
	if err := h.hook.PostAuthenticate(ctx, p, req); err != nil {
		return nil, errors.Wrap(err, "[authorize.Handler.signIn] post authenticate")
	}
	return results.SignIn{Principal: p}, nil
}

// withoutLoginPrompt copies params with "login" removed from the prompt parameter.
func withoutLoginPrompt(params url.Values, req *oidc.Request) url.Values {
	out := url.Values{}
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	var kept []string
	for _, prompt := range req.Prompts() {
		if prompt != oidc.PromptLogin {
			kept = append(kept, prompt)
		}
	}
	if len(kept) == 0 {
		out.Del(oidc.ParamPrompt)
	} else {
		out.Set(oidc.ParamPrompt, strings.Join(kept, " "))
	}
	return out
}
