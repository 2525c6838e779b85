package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KokopelliMusic/Tawa-3/internal/errs"
	"github.com/KokopelliMusic/Tawa-3/internal/hub"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
)

func TestCreateTempSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	assert.Len(t, sess.SessionID, 4)
	for _, r := range sess.SessionID {
		assert.True(t, strings.ContainsRune(codeAlphabet, r), "code %q outside alphabet", sess.SessionID)
	}
	assert.False(t, sess.Claimed)
	assert.Nil(t, sess.UserID)
	assert.Nil(t, sess.PlaylistID)

	other, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, sess.SessionID, other.SessionID)
}

func TestClaimSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, token := env.seedUser(t, "alice")
	pl := env.seedPlaylist(t, "party")
	env.seedEventType(t, "random_word")

	sess, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	// The webplayer subscribes before claiming so it receives session_created.
	watcher := hub.NewClient(sess.SessionID, nil)
	env.hub.Subscribe(sess.SessionID, watcher)

	claimed, err := env.sessions.Claim(ctx, sess.SessionID, user, token, pl.ID, model.ClaimSettings{
		AllowSpotify:  boolPtr(true),
		AllowedEvents: []string{"random_word"},
	})
	require.NoError(t, err)

	// claimed == true implies owner and playlist are set.
	assert.True(t, claimed.Claimed)
	require.NotNil(t, claimed.UserID)
	require.NotNil(t, claimed.PlaylistID)
	assert.Equal(t, user.ID, *claimed.UserID)
	assert.Equal(t, pl.ID, *claimed.PlaylistID)

	st, _, owner, err := env.sessions.GetSettings(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.True(t, st.AllowSpotify)
	require.Len(t, st.AllowedEvents, 1)
	assert.Equal(t, "random_word", st.AllowedEvents[0].Name)
	require.NotNil(t, owner)
	assert.Equal(t, "alice", owner.Username)

	// session_created reached the subscriber.
	select {
	case raw := <-watcher.Send:
		var ev model.Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, "session_created", ev.EventType)
		assert.Equal(t, sess.SessionID, ev.SessionID)
		var data struct {
			User      model.UserJSON `json:"user"`
			UserToken string         `json:"user_token"`
			Spotify   any            `json:"spotify"`
		}
		require.NoError(t, json.Unmarshal(ev.Data, &data))
		assert.Equal(t, "alice", data.User.Username)
		assert.Equal(t, token.Token, data.UserToken)
		assert.Nil(t, data.Spotify)
	default:
		t.Fatal("expected session_created event")
	}

	// Second claim attempt fails and mutates nothing.
	_, err = env.sessions.Claim(ctx, sess.SessionID, user, token, pl.ID, model.ClaimSettings{})
	assert.ErrorIs(t, err, errs.ErrAlreadyClaimed)
}

func TestClaimEmbedsSpotifyCredential(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, token := env.seedUser(t, "holly")
	pl := env.seedPlaylist(t, "party")
	require.NoError(t, env.db.Create(&model.SpotifyCredential{
		UserID:       user.ID,
		AccessToken:  "spotify-access",
		RefreshToken: "spotify-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}).Error)

	sess, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	watcher := hub.NewClient(sess.SessionID, nil)
	env.hub.Subscribe(sess.SessionID, watcher)

	// The credential read runs inside the claim transaction; with the
	// single-connection pool this setup uses, a second connection would
	// block forever.
	_, err = env.sessions.Claim(ctx, sess.SessionID, user, token, pl.ID, model.ClaimSettings{})
	require.NoError(t, err)

	select {
	case raw := <-watcher.Send:
		var ev model.Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		var data struct {
			Spotify *model.SpotifyJSON `json:"spotify"`
		}
		require.NoError(t, json.Unmarshal(ev.Data, &data))
		require.NotNil(t, data.Spotify)
		assert.Equal(t, "spotify-access", data.Spotify.AccessToken)
	default:
		t.Fatal("expected session_created event")
	}
}

func TestClaimStoresExplicitFalseSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, token := env.seedUser(t, "iris")
	pl := env.seedPlaylist(t, "party")

	sess, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	_, err = env.sessions.Claim(ctx, sess.SessionID, user, token, pl.ID, model.ClaimSettings{
		AllowYoutube:        boolPtr(false),
		AnyoneCanAddToQueue: boolPtr(false),
		EventFrequency:      intPtr(0),
	})
	require.NoError(t, err)

	st, _, _, err := env.sessions.GetSettings(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.False(t, st.AllowYoutube)
	assert.False(t, st.AnyoneCanAddToQueue)
	assert.Zero(t, st.EventFrequency)
	// Unsupplied toggles keep their defaults.
	assert.True(t, st.AllowSpotify)
	assert.True(t, st.AnyoneCanSeeQueue)
}

func TestClaimAppliesSettingsDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, token := env.seedUser(t, "jo")
	pl := env.seedPlaylist(t, "party")

	sess, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	_, err = env.sessions.Claim(ctx, sess.SessionID, user, token, pl.ID, model.ClaimSettings{})
	require.NoError(t, err)

	st, _, _, err := env.sessions.GetSettings(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.True(t, st.AllowSpotify)
	assert.True(t, st.AllowYoutube)
	assert.False(t, st.YoutubeOnlyAudio)
	assert.True(t, st.AllowEvents)
	assert.Equal(t, 10, st.EventFrequency)
	assert.True(t, st.AnyoneCanUsePlayerControls)
	assert.True(t, st.AllowGuests)
	assert.Equal(t, "[]", st.RandomWordList)
	assert.Equal(t, "random", st.AlgorithmUsed)
}

func TestClaimConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, aliceToken := env.seedUser(t, "alice")
	bob, bobToken := env.seedUser(t, "bob")
	pl := env.seedPlaylist(t, "party")

	sess, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, cl := range []struct {
		user  *model.User
		token *model.AccessToken
	}{{alice, aliceToken}, {bob, bobToken}} {
		wg.Add(1)
		go func(user *model.User, token *model.AccessToken) {
			defer wg.Done()
			_, err := env.sessions.Claim(ctx, sess.SessionID, user, token, pl.ID, model.ClaimSettings{})
			results <- err
		}(cl.user, cl.token)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrAlreadyClaimed)
		losses++
	}
	assert.Equal(t, 1, wins, "exactly one claim must win")
	assert.Equal(t, 1, losses)

	got, err := env.sessions.Get(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.True(t, got.Claimed)
	require.NotNil(t, got.UserID)
}

func TestClaimUnknownEventTypeRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, token := env.seedUser(t, "bob")
	pl := env.seedPlaylist(t, "party")

	sess, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	_, err = env.sessions.Claim(ctx, sess.SessionID, user, token, pl.ID, model.ClaimSettings{
		AllowedEvents: []string{"does_not_exist"},
	})
	assert.ErrorIs(t, err, errs.ErrUnknownEventType)

	// Whole claim rolled back: session unclaimed, no settings row.
	got, err := env.sessions.Get(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.False(t, got.Claimed)
	assert.Nil(t, got.UserID)

	var count int64
	require.NoError(t, env.db.Model(&model.SessionSettings{}).
		Where("session_id = ?", sess.SessionID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestClaimMissingSession(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.seedUser(t, "carol")
	pl := env.seedPlaylist(t, "party")

	_, err := env.sessions.Claim(context.Background(), "ZZZZ", user, token, pl.ID, model.ClaimSettings{})
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)
}

func TestClaimMissingPlaylist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, token := env.seedUser(t, "dave")

	sess, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	_, err = env.sessions.Claim(ctx, sess.SessionID, user, token, "no-such-playlist", model.ClaimSettings{})
	assert.ErrorIs(t, err, errs.ErrPlaylistNotFound)
}

func TestClaimDeletesPreviousSessionOfUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, token := env.seedUser(t, "erin")
	pl := env.seedPlaylist(t, "party")

	first, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)
	_, err = env.sessions.Claim(ctx, first.SessionID, user, token, pl.ID, model.ClaimSettings{})
	require.NoError(t, err)

	second, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)
	_, err = env.sessions.Claim(ctx, second.SessionID, user, token, pl.ID, model.ClaimSettings{})
	require.NoError(t, err)

	_, err = env.sessions.Get(ctx, first.SessionID)
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)

	got, err := env.sessions.Get(ctx, second.SessionID)
	require.NoError(t, err)
	assert.True(t, got.Claimed)
}

func TestJoinSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	_, err = env.sessions.Join(ctx, sess.SessionID)
	assert.ErrorIs(t, err, errs.ErrNotClaimed)

	user, token := env.seedUser(t, "frank")
	pl := env.seedPlaylist(t, "party")
	_, err = env.sessions.Claim(ctx, sess.SessionID, user, token, pl.ID, model.ClaimSettings{})
	require.NoError(t, err)

	joined, err := env.sessions.Join(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.True(t, joined.Claimed)

	_, err = env.sessions.Join(ctx, "QQQQ")
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)
}

func TestCreateTempDeletesOldUnclaimedSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	user, token := env.seedUser(t, "gus")
	pl := env.seedPlaylist(t, "party")
	keeper, err := env.sessions.CreateTemp(ctx)
	require.NoError(t, err)
	_, err = env.sessions.Claim(ctx, keeper.SessionID, user, token, pl.ID, model.ClaimSettings{})
	require.NoError(t, err)

	old := time.Now().Add(-25 * time.Hour)
	for _, id := range []string{stale.SessionID, keeper.SessionID} {
		require.NoError(t, env.db.Model(&model.Session{}).
			Where("session_id = ?", id).Update("created_at", old).Error)
	}

	_, err = env.sessions.CreateTemp(ctx)
	require.NoError(t, err)

	_, err = env.sessions.Get(ctx, stale.SessionID)
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)

	// Claimed sessions survive regardless of age.
	_, err = env.sessions.Get(ctx, keeper.SessionID)
	assert.NoError(t, err)
}
