package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/jrsteele09/go-oidc-grants/principal"
	"github.com/jrsteele09/go-oidc-grants/users"
	"github.com/pkg/errors"
)

var (
	_ users.Repo          = (*FakeUserRepo)(nil)
	_ users.SignInManager = (*FakeUserRepo)(nil)
)

const (
	DefaultMaxFailedAttempts = 5
	DefaultLockoutDuration   = 5 * time.Minute
)

// FakeUserRepo is an in-memory identity store and sign-in manager.
type FakeUserRepo struct {
	users       map[string]*users.Account
	usernameIds map[string]string // username to user id
	lock        sync.RWMutex

	maxFailedAttempts     int
	lockoutDuration       time.Duration
	requireConfirmedEmail bool
	nowTime               func() time.Time
}

type Option func(*FakeUserRepo)

// WithLockout sets the number of failed attempts before lockout and how long it lasts.
func WithLockout(maxFailedAttempts int, duration time.Duration) Option {
	return func(r *FakeUserRepo) {
		r.maxFailedAttempts = maxFailedAttempts
		r.lockoutDuration = duration
	}
}

// WithRequireConfirmedEmail refuses sign in for users that are not verified.
func WithRequireConfirmedEmail() Option {
	return func(r *FakeUserRepo) {
		r.requireConfirmedEmail = true
	}
}

func WithNowTime(nowTime func() time.Time) Option {
	return func(r *FakeUserRepo) {
		r.nowTime = nowTime
	}
}

func NewFakeUserRepo(options ...Option) *FakeUserRepo {
	r := &FakeUserRepo{
		users:             make(map[string]*users.Account),
		usernameIds:       make(map[string]string),
		maxFailedAttempts: DefaultMaxFailedAttempts,
		lockoutDuration:   DefaultLockoutDuration,
		nowTime:           time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Upsert stores the account, assigning an id and security stamp when missing.
func (ur *FakeUserRepo) Upsert(user *users.Account) error {
	if user.Username == "" {
		return errors.New("[FakeUserRepo.Upsert] username is required")
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.SecurityStamp == "" {
		user.SecurityStamp = uuid.New().String()
	}
	if existing, ok := ur.users[user.ID]; ok && existing.Username != user.Username {
		delete(ur.usernameIds, existing.Username)
	}
	ur.users[user.ID] = user
	ur.usernameIds[user.Username] = user.ID
	return nil
}

// AddUser hashes password and stores a new account.
func (ur *FakeUserRepo) AddUser(user *users.Account, password string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "[FakeUserRepo.AddUser] hash password")
	}
	user.PasswordHash = hash
	return ur.Upsert(user)
}

func (ur *FakeUserRepo) Delete(id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	delete(ur.usernameIds, user.Username)
	delete(ur.users, id)
	return nil
}

// SetBlocked blocks or unblocks the account with id.
func (ur *FakeUserRepo) SetBlocked(id string, blocked bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	user.Blocked = blocked
	return nil
}

func (ur *FakeUserRepo) FindByName(_ context.Context, username string) (users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernameIds[username]
	if !ok {
		return nil, users.ErrNotFound
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) FindByID(_ context.Context, id string) (users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func (ur *FakeUserRepo) Roles(_ context.Context, user users.User) ([]string, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	account, ok := ur.users[user.GetID()]
	if !ok {
		return nil, users.ErrNotFound
	}
	roles := make([]string, len(account.Roles))
	copy(roles, account.Roles)
	return roles, nil
}

func (ur *FakeUserRepo) CheckPasswordSignIn(_ context.Context, user users.User, password string, lockoutOnFailure bool) (users.SignInResult, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	account, ok := ur.users[user.GetID()]
	if !ok {
		return users.SignInResult{}, users.ErrNotFound
	}
	now := ur.nowTime()

	if !ur.canSignIn(account) {
		return users.SignInResult{Status: users.SignInNotAllowed}, nil
	}
	if account.IsLockedOut(now) {
		return users.SignInResult{Status: users.SignInLockedOut}, nil
	}

	if users.CheckPasswordHash(password, account.PasswordHash) {
		account.AccessFailedCount = 0
		account.LockoutEnd = time.Time{}
		return users.SignInResult{Status: users.SignInSucceeded}, nil
	}

	if lockoutOnFailure && ur.maxFailedAttempts > 0 {
		account.AccessFailedCount++
		if account.AccessFailedCount >= ur.maxFailedAttempts {
			account.AccessFailedCount = 0
			account.LockoutEnd = now.Add(ur.lockoutDuration)
			return users.SignInResult{Status: users.SignInLockedOut}, nil
		}
	}
	return users.SignInResult{Status: users.SignInFailed}, nil
}

func (ur *FakeUserRepo) CreateUserPrincipal(_ context.Context, user users.User) (*principal.Principal, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	account, ok := ur.users[user.GetID()]
	if !ok {
		return nil, users.ErrNotFound
	}

	p := principal.New(
		principal.NewClaim(oidc.ClaimSubject, account.ID),
		principal.NewClaim(oidc.ClaimName, account.Username),
	)
	if account.Email != "" {
		p.AddClaim(oidc.ClaimEmail, account.Email)
	}
	for _, role := range account.Roles {
		p.AddClaim(oidc.ClaimRole, role)
	}
	p.AddClaim(oidc.ClaimSecurityStamp, account.SecurityStamp)
	return p, nil
}

func (ur *FakeUserRepo) CanSignIn(_ context.Context, user users.User) (bool, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	account, ok := ur.users[user.GetID()]
	if !ok {
		return false, users.ErrNotFound
	}
	return ur.canSignIn(account) && !account.IsLockedOut(ur.nowTime()), nil
}

func (ur *FakeUserRepo) canSignIn(account *users.Account) bool {
	if account.Blocked {
		return false
	}
	if ur.requireConfirmedEmail && !account.Verified {
		return false
	}
	return true
}
