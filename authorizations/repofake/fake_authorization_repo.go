package fakeauthorizationrepo

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-grants/authorizations"
	"github.com/jrsteele09/go-oidc-grants/oidc"
)

var (
	_ authorizations.Repo   = (*FakeAuthorizationRepo)(nil)
	_ authorizations.Pruner = (*FakeAuthorizationRepo)(nil)
)

type FakeAuthorizationRepo struct {
	authorizations map[string]*authorizations.Authorization
	lock           sync.RWMutex
	nowTime        func() time.Time
}

type Option func(*FakeAuthorizationRepo)

func WithNowTime(nowTime func() time.Time) Option {
	return func(r *FakeAuthorizationRepo) {
		r.nowTime = nowTime
	}
}

func NewFakeAuthorizationRepo(options ...Option) *FakeAuthorizationRepo {
	r := &FakeAuthorizationRepo{
		authorizations: make(map[string]*authorizations.Authorization),
		nowTime:        time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *FakeAuthorizationRepo) Find(_ context.Context, q authorizations.Query) ([]*authorizations.Authorization, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	found := make([]*authorizations.Authorization, 0)
	for _, a := range r.authorizations {
		if q.Subject != "" && a.Subject != q.Subject {
			continue
		}
		if q.ApplicationID != "" && a.ApplicationID != q.ApplicationID {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.Type != "" && a.Type != q.Type {
			continue
		}
		if !a.Covers(q.Scopes) {
			continue
		}
		copied := *a
		copied.Scopes = slices.Clone(a.Scopes)
		found = append(found, &copied)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].CreatedAt.Before(found[j].CreatedAt)
	})
	return found, nil
}

func (r *FakeAuthorizationRepo) Create(_ context.Context, subject, applicationID, authorizationType string, scopes []string) (*authorizations.Authorization, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	a := &authorizations.Authorization{
		ID:            uuid.New().String(),
		Subject:       subject,
		ApplicationID: applicationID,
		Status:        oidc.StatusValid,
		Type:          authorizationType,
		Scopes:        slices.Clone(scopes),
		CreatedAt:     r.nowTime(),
	}
	r.authorizations[a.ID] = a
	copied := *a
	return &copied, nil
}

func (r *FakeAuthorizationRepo) Get(_ context.Context, id string) (*authorizations.Authorization, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	a, ok := r.authorizations[id]
	if !ok {
		return nil, authorizations.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *FakeAuthorizationRepo) Revoke(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	a, ok := r.authorizations[id]
	if !ok {
		return authorizations.ErrNotFound
	}
	a.Status = oidc.StatusRevoked
	return nil
}

func (r *FakeAuthorizationRepo) Prune(_ context.Context, threshold time.Time) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	pruned := 0
	for id, a := range r.authorizations {
		if !a.CreatedAt.Before(threshold) {
			continue
		}
		if a.Status != oidc.StatusValid || a.Type == oidc.AuthorizationTypeAdHoc {
			delete(r.authorizations, id)
			pruned++
		}
	}
	return pruned, nil
}
