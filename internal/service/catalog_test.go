package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KokopelliMusic/Tawa-3/internal/errs"
)

func TestUserByToken(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seedUser(t, "alice")

	got, at, err := env.catalog.UserByToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, token.Token, at.Token)

	_, _, err = env.catalog.UserByToken("bogus")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestSpotifyCredentialLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedUser(t, "bob")

	_, err := env.catalog.SpotifyByUser(user.ID)
	assert.ErrorIs(t, err, errs.ErrSpotifyNotFound)

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	sp, err := env.catalog.SetSpotify(user.ID, "access-1", "refresh-1", expires)
	require.NoError(t, err)
	assert.Equal(t, "access-1", sp.AccessToken)

	// Set again replaces in place.
	sp, err = env.catalog.SetSpotify(user.ID, "access-2", "refresh-2", expires)
	require.NoError(t, err)
	assert.Equal(t, "access-2", sp.AccessToken)
	assert.Equal(t, "refresh-2", sp.RefreshToken)

	// Update refreshes only the access token.
	sp, err = env.catalog.UpdateSpotify(user.ID, "access-3", expires.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "access-3", sp.AccessToken)
	assert.Equal(t, "refresh-2", sp.RefreshToken)

	require.NoError(t, env.catalog.DeleteSpotify(user.ID))
	_, err = env.catalog.SpotifyByUser(user.ID)
	assert.ErrorIs(t, err, errs.ErrSpotifyNotFound)

	err = env.catalog.DeleteSpotify(user.ID)
	assert.ErrorIs(t, err, errs.ErrSpotifyNotFound)
}
