package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	prefs, err := client.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", prefs.UserID)
	assert.Empty(t, prefs.TitleFilter)
	assert.Zero(t, prefs.ID)

	require.NoError(t, client.SavePreferences(ctx, &Preferences{
		UserID:         "u1",
		LastSearch:     "halo",
		TitleFilter:    "infinite",
		PlatformFilter: "PC",
	}))

	prefs, err = client.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "halo", prefs.LastSearch)
	assert.Equal(t, "infinite", prefs.TitleFilter)
	assert.Equal(t, "PC", prefs.PlatformFilter)

	// saving again updates the existing row
	require.NoError(t, client.SavePreferences(ctx, &Preferences{UserID: "u1", PlatformFilter: "Xbox One"}))
	prefs, err = client.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, prefs.TitleFilter)
	assert.Equal(t, "Xbox One", prefs.PlatformFilter)

	var count int64
	require.NoError(t, client.db.Model(&Preferences{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	other, err := client.GetPreferences(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other.PlatformFilter)

	require.NoError(t, client.DeletePreferences(ctx, "u1"))
	prefs, err = client.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, prefs.PlatformFilter)
}

func TestClearPreferences(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, client.SavePreferences(ctx, &Preferences{UserID: id, LastSearch: "zelda"}))
	}

	count, err := client.CountPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	removed, err := client.ClearPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	count, err = client.CountPreferences(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
