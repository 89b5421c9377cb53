package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo_GetMissing(t *testing.T) {
	db := newMemoryDB(t)
	repo := NewSettingsRepo(db)

	value, found, err := repo.Get(context.Background(), "smartq:user-profile")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestSettingsRepo_SetAndGet(t *testing.T) {
	db := newMemoryDB(t)
	repo := NewSettingsRepo(db)
	ctx := context.Background()

	profile := `{"id":1,"username":"manager1","role":"manager"}`
	require.NoError(t, repo.Set(ctx, "smartq:user-profile", profile))

	value, found, err := repo.Get(ctx, "smartq:user-profile")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, profile, value)
}

func TestSettingsRepo_SetOverwrites(t *testing.T) {
	db := newMemoryDB(t)
	repo := NewSettingsRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "theme", "light"))
	require.NoError(t, repo.Set(ctx, "theme", "dark"))

	value, found, err := repo.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", value)
}

func TestSettingsRepo_Delete(t *testing.T) {
	db := newMemoryDB(t)
	repo := NewSettingsRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "theme", "dark"))
	require.NoError(t, repo.Delete(ctx, "theme"))
	require.NoError(t, repo.Delete(ctx, "theme"), "second delete is a no-op")

	_, found, err := repo.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, found)
}
