package fakescoperepo

import (
	"context"
	"slices"
	"sort"
	"sync"

	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
	"github.com/jrsteele09/go-oidc-grants/scopes"
)

var _ scopes.Repo = (*FakeScopeRepo)(nil)

type FakeScopeRepo struct {
	scopes map[string]*scopes.Scope
	lock   sync.RWMutex
}

func NewFakeScopeRepo() *FakeScopeRepo {
	return &FakeScopeRepo{
		scopes: make(map[string]*scopes.Scope),
	}
}

func (r *FakeScopeRepo) ListResources(_ context.Context, names []string) ([]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	resources := make([]string, 0)
	for _, name := range names {
		scope, ok := r.scopes[name]
		if !ok {
			continue
		}
		for _, resource := range scope.Resources {
			if !slices.Contains(resources, resource) {
				resources = append(resources, resource)
			}
		}
	}
	return resources, nil
}

func (r *FakeScopeRepo) FindByName(_ context.Context, name string) (*scopes.Scope, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	scope, ok := r.scopes[name]
	if !ok {
		return nil, scopes.ErrNotFound
	}
	copied := *scope
	return &copied, nil
}

func (r *FakeScopeRepo) List(_ context.Context) ([]*scopes.Scope, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*scopes.Scope, 0, len(r.scopes))
	for _, scope := range r.scopes {
		copied := *scope
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (r *FakeScopeRepo) Create(_ context.Context, scope *scopes.Scope) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.scopes[scope.Name]; ok {
		return autherrors.Wrapf(autherrors.ErrAlreadyExists, "[FakeScopeRepo.Create] scope %s", scope.Name)
	}
	copied := *scope
	copied.Resources = slices.Clone(scope.Resources)
	r.scopes[scope.Name] = &copied
	return nil
}

func (r *FakeScopeRepo) Update(_ context.Context, scope *scopes.Scope) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.scopes[scope.Name]; !ok {
		return scopes.ErrNotFound
	}
	copied := *scope
	copied.Resources = slices.Clone(scope.Resources)
	r.scopes[scope.Name] = &copied
	return nil
}

func (r *FakeScopeRepo) Delete(_ context.Context, name string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.scopes[name]; !ok {
		return scopes.ErrNotFound
	}
	delete(r.scopes, name)
	return nil
}
