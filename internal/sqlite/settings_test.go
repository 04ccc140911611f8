package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArturAbdullinITIS/newsd/internal/newsd"
)

func TestGet_SeedsDefaultsOnFirstRead(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, newsd.DefaultSettings(), s)

	// A second read sees the same single row.
	again, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestSetters_PersistSingleFields(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	require.NoError(t, repo.SetLanguage(ctx, newsd.LanguageGerman))
	require.NoError(t, repo.SetInterval(ctx, newsd.Interval1Hour))
	require.NoError(t, repo.SetNotificationsEnabled(ctx, false))
	require.NoError(t, repo.SetWifiOnly(ctx, true))

	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, newsd.Settings{
		Language:             newsd.LanguageGerman,
		Interval:             newsd.Interval1Hour,
		NotificationsEnabled: false,
		WifiOnly:             true,
	}, s)
}

func TestSetLanguage_RejectsUnknown(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	require.Error(t, repo.SetLanguage(ctx, newsd.Language("xx")))
	require.Error(t, repo.SetInterval(ctx, newsd.Interval(7)))
}

func TestWatch_EmitsFullSettingsOnEachMutation(t *testing.T) {
	repo := newTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := repo.Watch(ctx)
	assert.Equal(t, newsd.DefaultSettings(), recv(t, updates))

	require.NoError(t, repo.SetWifiOnly(ctx, true))
	got := recv(t, updates)
	assert.True(t, got.WifiOnly)
	assert.Equal(t, newsd.Interval15Min, got.Interval)

	require.NoError(t, repo.SetInterval(ctx, newsd.Interval30Min))
	got = recv(t, updates)
	assert.Equal(t, newsd.Interval30Min, got.Interval)
	assert.True(t, got.WifiOnly)
}
