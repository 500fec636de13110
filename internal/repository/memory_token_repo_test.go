package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pet-adoption-portal/internal/model"
)

func TestMemoryTokenRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryTokenRepository()

	_, err := repo.Get(ctx, "s1", "accessToken")
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	require.NoError(t, repo.Set(ctx, "s1", "accessToken", "a1"))
	require.NoError(t, repo.Set(ctx, "s1", "refreshToken", "r1"))
	require.NoError(t, repo.Set(ctx, "s2", "accessToken", "a2"))

	value, err := repo.Get(ctx, "s1", "accessToken")
	require.NoError(t, err)
	require.Equal(t, "a1", value)

	require.NoError(t, repo.Set(ctx, "s1", "accessToken", "a1-new"))
	value, err = repo.Get(ctx, "s1", "accessToken")
	require.NoError(t, err)
	require.Equal(t, "a1-new", value)

	require.NoError(t, repo.Delete(ctx, "s1", "accessToken", "refreshToken"))
	require.NoError(t, repo.Delete(ctx, "s1", "accessToken", "refreshToken"))
	_, err = repo.Get(ctx, "s1", "refreshToken")
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	value, err = repo.Get(ctx, "s2", "accessToken")
	require.NoError(t, err)
	require.Equal(t, "a2", value)
}

func TestMemoryTokenRepositoryCleanIdle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryTokenRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Set(ctx, "old", "accessToken", "a"))

	repo.now = func() time.Time { return base.Add(2 * time.Hour) }
	require.NoError(t, repo.Set(ctx, "fresh", "accessToken", "b"))

	removed, err := repo.CleanIdle(ctx, time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, err = repo.Get(ctx, "old", "accessToken")
	require.ErrorIs(t, err, model.ErrTokenNotFound)
	_, err = repo.Get(ctx, "fresh", "accessToken")
	require.NoError(t, err)
}

func TestMemoryTokenRepositoryReadsKeepSessionAlive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryTokenRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	idle := 7 * 24 * time.Hour

	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Set(ctx, "active", "accessToken", "a"))
	require.NoError(t, repo.Set(ctx, "active", "refreshToken", "r"))
	require.NoError(t, repo.Set(ctx, "abandoned", "accessToken", "b"))

	for day := 1; day <= 10; day++ {
		now := base.Add(time.Duration(day) * 24 * time.Hour)
		repo.now = func() time.Time { return now }

		value, err := repo.Get(ctx, "active", "accessToken")
		require.NoError(t, err, "day %d", day)
		require.Equal(t, "a", value)

		_, err = repo.CleanIdle(ctx, idle)
		require.NoError(t, err)
	}

	value, err := repo.Get(ctx, "active", "refreshToken")
	require.NoError(t, err)
	require.Equal(t, "r", value)

	_, err = repo.Get(ctx, "abandoned", "accessToken")
	require.ErrorIs(t, err, model.ErrTokenNotFound)
}
