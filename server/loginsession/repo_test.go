package loginsession_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-oidc-grants/server/loginsession"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRepos(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repos := map[string]loginsession.Repo{
		"in memory": loginsession.NewInMemoryLoginSessionRepo(),
		"redis":     loginsession.NewRedisLoginSessionRepo(client, ""),
	}
	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Second)
			session := loginsession.Session{Subject: "user-1", DisplayName: "Alice", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

			_, err := repo.Get(ctx, "sid")
			require.ErrorIs(t, err, loginsession.ErrNotFound)

			require.NoError(t, repo.Upsert(ctx, "sid", session))
			found, err := repo.Get(ctx, "sid")
			require.NoError(t, err)
			require.Equal(t, session.Subject, found.Subject)
			require.True(t, session.CreatedAt.Equal(found.CreatedAt))
			require.False(t, found.Expired(now))
			require.True(t, found.Expired(now.Add(time.Hour)))

			require.NoError(t, repo.Delete(ctx, "sid"))
			require.NoError(t, repo.Delete(ctx, "sid"))
			_, err = repo.Get(ctx, "sid")
			require.ErrorIs(t, err, loginsession.ErrNotFound)
		})
	}
}

func TestRedisSessionExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := loginsession.NewRedisLoginSessionRepo(client, "test:")
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "sid", loginsession.Session{Subject: "user-1", ExpiresAt: time.Now().Add(time.Minute)}))
	require.True(t, mr.Exists("test:sid"))

	mr.FastForward(2 * time.Minute)
	_, err := repo.Get(ctx, "sid")
	require.ErrorIs(t, err, loginsession.ErrNotFound)

	require.Error(t, repo.Upsert(ctx, "old", loginsession.Session{ExpiresAt: time.Now().Add(-time.Minute)}))
}
