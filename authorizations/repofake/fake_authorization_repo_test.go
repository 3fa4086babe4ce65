package fakeauthorizationrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-oidc-grants/authorizations"
	fakeauthorizationrepo "github.com/jrsteele09/go-oidc-grants/authorizations/repofake"
	"github.com/jrsteele09/go-oidc-grants/oidc"
	"github.com/stretchr/testify/require"
)

func TestFindMatchesScopeSuperset(t *testing.T) {
	ctx := context.Background()
	repo := fakeauthorizationrepo.NewFakeAuthorizationRepo()

	created, err := repo.Create(ctx, "user-1", "app-1", oidc.AuthorizationTypePermanent, []string{"openid", "profile", "orders.read"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	query := authorizations.Query{
		Subject:       "user-1",
		ApplicationID: "app-1",
		Status:        oidc.StatusValid,
		Type:          oidc.AuthorizationTypePermanent,
		Scopes:        []string{"openid", "profile"},
	}
	found, err := repo.Find(ctx, query)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, created.ID, found[0].ID)

	query.Scopes = []string{"openid", "orders.write"}
	found, err = repo.Find(ctx, query)
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestRevokedAuthorizationsAreNotValid(t *testing.T) {
	ctx := context.Background()
	repo := fakeauthorizationrepo.NewFakeAuthorizationRepo()

	created, err := repo.Create(ctx, "user-1", "app-1", oidc.AuthorizationTypePermanent, []string{"openid"})
	require.NoError(t, err)
	require.NoError(t, repo.Revoke(ctx, created.ID))

	found, err := repo.Find(ctx, authorizations.Query{Subject: "user-1", Status: oidc.StatusValid})
	require.NoError(t, err)
	require.Empty(t, found)

	require.ErrorIs(t, repo.Revoke(ctx, "missing"), authorizations.ErrNotFound)
}

func TestPruneRemovesOldUnusableAuthorizations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := fakeauthorizationrepo.NewFakeAuthorizationRepo(fakeauthorizationrepo.WithNowTime(func() time.Time { return now }))

	kept, err := repo.Create(ctx, "user-1", "app-1", oidc.AuthorizationTypePermanent, []string{"openid"})
	require.NoError(t, err)
	adHoc, err := repo.Create(ctx, "user-1", "app-1", oidc.AuthorizationTypeAdHoc, []string{"openid"})
	require.NoError(t, err)
	revoked, err := repo.Create(ctx, "user-2", "app-1", oidc.AuthorizationTypePermanent, []string{"openid"})
	require.NoError(t, err)
	require.NoError(t, repo.Revoke(ctx, revoked.ID))

	pruned, err := repo.Prune(ctx, now)
	require.NoError(t, err)
	require.Zero(t, pruned, "nothing is older than the threshold yet")

	pruned, err = repo.Prune(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, pruned)

	_, err = repo.Get(ctx, kept.ID)
	require.NoError(t, err)
	_, err = repo.Get(ctx, adHoc.ID)
	require.ErrorIs(t, err, authorizations.ErrNotFound)
	_, err = repo.Get(ctx, revoked.ID)
	require.ErrorIs(t, err, authorizations.ErrNotFound)
}
