package fakeclientrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-grants/clients"
	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
)

var _ clients.Repo = (*FakeClientRepo)(nil)

// FakeClientRepo keeps applications in memory, keyed by client id.
type FakeClientRepo struct {
	clients map[string]*clients.Application
	lock    sync.RWMutex
}

func NewFakeClientRepo() *FakeClientRepo {
	return &FakeClientRepo{
		clients: make(map[string]*clients.Application),
	}
}

func (r *FakeClientRepo) FindByClientID(_ context.Context, clientID string) (*clients.Application, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	app, ok := r.clients[clientID]
	if !ok {
		return nil, clients.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (r *FakeClientRepo) List(_ context.Context) ([]*clients.Application, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	apps := make([]*clients.Application, 0, len(r.clients))
	for _, v := range r.clients {
		copied := *v
		apps = append(apps, &copied)
	}

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].ClientID < apps[j].ClientID
	})
	return apps, nil
}

func (r *FakeClientRepo) Create(_ context.Context, app *clients.Application) error {
	if app.ClientID == "" {
		return autherrors.Wrapf(autherrors.ErrInvalidInput, "[FakeClientRepo.Create] client id is required")
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.clients[app.ClientID]; ok {
		return autherrors.Wrapf(autherrors.ErrAlreadyExists, "[FakeClientRepo.Create] client %s", app.ClientID)
	}
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	copied := *app
	r.clients[app.ClientID] = &copied
	return nil
}

// Update replaces the stored application, keeping its store id.
func (r *FakeClientRepo) Update(_ context.Context, app *clients.Application) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	existing, ok := r.clients[app.ClientID]
	if !ok {
		return clients.ErrNotFound
	}
	copied := *app
	copied.ID = existing.ID
	r.clients[app.ClientID] = &copied
	return nil
}

func (r *FakeClientRepo) Delete(_ context.Context, clientID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.clients[clientID]; !ok {
		return clients.ErrNotFound
	}
	delete(r.clients, clientID)
	return nil
}
