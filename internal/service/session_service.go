package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/KokopelliMusic/Tawa-3/internal/errs"
	"github.com/KokopelliMusic/Tawa-3/internal/gateway"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
)

// codeAlphabet excludes visually ambiguous letters (M, W).
const codeAlphabet = "ABCDEFGHIJKLNOPQRSTUVXYZ"

// SessionService is the session registry: code generation, the claim
// lifecycle and garbage collection of stale unclaimed sessions.
type SessionService struct {
	db         *gorm.DB
	gw         *gateway.Gateway
	catalog    *Catalog
	log        *zap.Logger
	codeLength int
	maxAge     time.Duration
}

// NewSessionService creates a session service.
func NewSessionService(db *gorm.DB, gw *gateway.Gateway, catalog *Catalog, codeLength, maxAgeHours int, log *zap.Logger) *SessionService {
	return &SessionService{
		db:         db,
		gw:         gw,
		catalog:    catalog,
		log:        log,
		codeLength: codeLength,
		maxAge:     time.Duration(maxAgeHours) * time.Hour,
	}
}

func boolOrDefault(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func intOrDefault(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// CreateTemp creates an unclaimed session under a fresh code, regenerating
// on collision. It also opportunistically deletes unclaimed sessions older
// than the configured age.
func (s *SessionService) CreateTemp(ctx context.Context) (*model.Session, error) {
	var code string
	for {
		code = randomCode(s.codeLength)
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Session{}).
			Where("session_id = ?", code).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			break
		}
	}

	sess := &model.Session{SessionID: code}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, err
	}

	s.deleteOldSessions(ctx)
	return sess, nil
}

// deleteOldSessions removes stale unclaimed sessions in a single
// query-and-delete, so a session claimed after the cutoff scan can never be
// swept by a stale list.
func (s *SessionService) deleteOldSessions(ctx context.Context) {
	cutoff := time.Now().Add(-s.maxAge)
	res := s.db.WithContext(ctx).
		Where("claimed = ? AND created_at < ?", false, cutoff).
		Delete(&model.Session{})
	if res.Error != nil {
		s.log.Warn("old session cleanup failed", zap.Error(res.Error))
		return
	}
	if res.RowsAffected > 0 {
		s.log.Info("deleted old unclaimed sessions", zap.Int64("count", res.RowsAffected))
	}
}

// sessionCreatedPayload is the data of the session_created event.
type sessionCreatedPayload struct {
	Session   model.SessionJSON   `json:"session"`
	Settings  model.SettingsJSON  `json:"settings"`
	Spotify   *model.SpotifyJSON  `json:"spotify"`
	User      model.UserJSON      `json:"user"`
	UserToken string              `json:"user_token"`
}

// Claim binds a session to its owner, playlist and settings, exactly once.
// Inside one transaction it deletes the user's previous claimed session,
// flips the claim flag, resolves and stores the settings, and publishes the
// session_created event to the session's subscribers. Any failure rolls the
// whole claim back.
func (s *SessionService) Claim(ctx context.Context, code string, user *model.User, token *model.AccessToken, playlistID string, settings model.ClaimSettings) (*model.Session, error) {
	if _, err := s.catalog.PlaylistByID(playlistID); err != nil {
		return nil, err
	}

	var claimed model.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess model.Session
		if err := tx.Where("session_id = ?", code).First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrSessionNotFound
			}
			return err
		}
		if sess.Claimed {
			return errs.ErrAlreadyClaimed
		}

		// One claimed session per user: drop any previous ones with their
		// settings, queue and now-playing rows.
		var old []string
		if err := tx.Model(&model.Session{}).Where("user_id = ?", user.ID).
			Pluck("session_id", &old).Error; err != nil {
			return err
		}
		if len(old) > 0 {
			if err := tx.Exec("DELETE FROM session_settings_allowed_events WHERE session_settings_session_id IN ?", old).Error; err != nil {
				return err
			}
			for _, m := range []any{&model.SessionSettings{}, &model.QueueEntry{}, &model.NowPlaying{}, &model.Session{}} {
				if err := tx.Where("session_id IN ?", old).Delete(m).Error; err != nil {
					return err
				}
			}
		}

		// Guarded flip: zero rows affected means someone else claimed
		// between the read above and here.
		res := tx.Model(&model.Session{}).
			Where("session_id = ? AND claimed = ?", code, false).
			Updates(map[string]any{
				"claimed":     true,
				"user_id":     user.ID,
				"playlist_id": playlistID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrAlreadyClaimed
		}

		eventTypes := make([]model.EventType, 0, len(settings.AllowedEvents))
		for _, name := range settings.AllowedEvents {
			var et model.EventType
			if err := tx.Where("name = ?", name).First(&et).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", errs.ErrUnknownEventType, name)
				}
				return err
			}
			eventTypes = append(eventTypes, et)
		}

		st := &model.SessionSettings{
			SessionID:                  code,
			AllowSpotify:               boolOrDefault(settings.AllowSpotify, true),
			AllowYoutube:               boolOrDefault(settings.AllowYoutube, true),
			YoutubeOnlyAudio:           boolOrDefault(settings.YoutubeOnlyAudio, false),
			AllowEvents:                boolOrDefault(settings.AllowEvents, true),
			EventFrequency:             intOrDefault(settings.EventFrequency, 10),
			AllowedEvents:              eventTypes,
			RandomWordList:             settings.RandomWordList,
			AnyoneCanUsePlayerControls: boolOrDefault(settings.AnyoneCanUsePlayerControls, true),
			AnyoneCanAddToQueue:        boolOrDefault(settings.AnyoneCanAddToQueue, true),
			AnyoneCanRemoveFromQueue:   boolOrDefault(settings.AnyoneCanRemoveFromQueue, true),
			AnyoneCanSeeHistory:        boolOrDefault(settings.AnyoneCanSeeHistory, true),
			AnyoneCanSeeQueue:          boolOrDefault(settings.AnyoneCanSeeQueue, true),
			AnyoneCanSeePlaylist:       boolOrDefault(settings.AnyoneCanSeePlaylist, true),
			AlgorithmUsed:              settings.AlgorithmUsed,
			AllowGuests:                boolOrDefault(settings.AllowGuests, true),
		}
		if st.RandomWordList == "" {
			st.RandomWordList = "[]"
		}
		if st.AlgorithmUsed == "" {
			st.AlgorithmUsed = "random"
		}
		if err := tx.Create(st).Error; err != nil {
			return err
		}

		if err := tx.Where("session_id = ?", code).First(&claimed).Error; err != nil {
			return err
		}

		// Notify the webplayer that the session has been claimed. A failed
		// history append aborts the claim with everything else.
		payload := sessionCreatedPayload{
			Session:   model.NewSessionJSON(&claimed, user),
			Settings:  model.NewSettingsJSON(st, &claimed, user),
			User:      model.NewUserJSON(user),
			UserToken: token.Token,
		}
		if sp, err := spotifyByUser(tx, user.ID); err == nil {
			j := model.NewSpotifyJSON(sp)
			payload.Spotify = &j
		} else if !errors.Is(err, errs.ErrSpotifyNotFound) {
			return err
		}
		return s.gw.PublishServerEvent(ctx, code, gateway.ClientTypeServer, "session_created", payload)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("session claimed",
		zap.String("session_id", code),
		zap.String("user_id", user.ID))
	return &claimed, nil
}

// Join validates that a session exists and is claimed, and returns it.
// Joining has no side effect beyond validation (legacy contract).
func (s *SessionService) Join(ctx context.Context, code string) (*model.Session, error) {
	sess, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !sess.Claimed {
		return nil, errs.ErrNotClaimed
	}
	return sess, nil
}

// Get returns a session by code.
func (s *SessionService) Get(ctx context.Context, code string) (*model.Session, error) {
	var sess model.Session
	if err := s.db.WithContext(ctx).Where("session_id = ?", code).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// GetSettings returns the settings of a claimed session with allowed events
// preloaded, plus the session and its owner for serialization.
func (s *SessionService) GetSettings(ctx context.Context, code string) (*model.SessionSettings, *model.Session, *model.User, error) {
	sess, err := s.Get(ctx, code)
	if err != nil {
		return nil, nil, nil, err
	}
	var st model.SessionSettings
	if err := s.db.WithContext(ctx).Preload("AllowedEvents").
		Where("session_id = ?", code).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, errs.ErrSessionNotFound
		}
		return nil, nil, nil, err
	}
	owner, err := s.Owner(ctx, sess)
	if err != nil {
		return nil, nil, nil, err
	}
	return &st, sess, owner, nil
}

// Owner returns the owning user of a session, or nil for unclaimed ones.
func (s *SessionService) Owner(ctx context.Context, sess *model.Session) (*model.User, error) {
	if sess.UserID == nil {
		return nil, nil
	}
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", *sess.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// List returns all sessions (privileged callers only).
func (s *SessionService) List(ctx context.Context) ([]model.Session, error) {
	var sessions []model.Session
	if err := s.db.WithContext(ctx).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
