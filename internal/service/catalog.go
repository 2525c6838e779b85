package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/KokopelliMusic/Tawa-3/internal/errs"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
)

// Catalog exposes the collaborator contracts this service consumes:
// identity lookup by bearer token, playlist/song lookup by id, and the
// per-user Spotify credential store.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog creates a catalog over the shared relational store.
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// UserByToken resolves an opaque bearer token to its user.
func (c *Catalog) UserByToken(token string) (*model.User, *model.AccessToken, error) {
	var at model.AccessToken
	if err := c.db.Where("token = ?", token).First(&at).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.ErrUnauthorized
		}
		return nil, nil, err
	}
	var user model.User
	if err := c.db.Where("id = ?", at.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.ErrUnauthorized
		}
		return nil, nil, err
	}
	return &user, &at, nil
}

// SongByID returns a song or ErrSongNotFound.
func (c *Catalog) SongByID(id string) (*model.Song, error) {
	var song model.Song
	if err := c.db.Where("id = ?", id).First(&song).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSongNotFound
		}
		return nil, err
	}
	return &song, nil
}

// PlaylistByID returns a playlist or ErrPlaylistNotFound.
func (c *Catalog) PlaylistByID(id string) (*model.Playlist, error) {
	var pl model.Playlist
	if err := c.db.Where("id = ?", id).First(&pl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrPlaylistNotFound
		}
		return nil, err
	}
	return &pl, nil
}

// SpotifyByUser returns the stored credential or ErrSpotifyNotFound.
func (c *Catalog) SpotifyByUser(userID string) (*model.SpotifyCredential, error) {
	return spotifyByUser(c.db, userID)
}

// spotifyByUser runs the lookup on any handle so transactional callers keep
// the read inside their own tx instead of borrowing a second connection.
func spotifyByUser(db *gorm.DB, userID string) (*model.SpotifyCredential, error) {
	var sp model.SpotifyCredential
	if err := db.Where("user_id = ?", userID).First(&sp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSpotifyNotFound
		}
		return nil, err
	}
	return &sp, nil
}

// SetSpotify creates or replaces the credential for a user.
func (c *Catalog) SetSpotify(userID, accessToken, refreshToken string, expiresAt time.Time) (*model.SpotifyCredential, error) {
	sp, err := c.SpotifyByUser(userID)
	if errors.Is(err, errs.ErrSpotifyNotFound) {
		sp = &model.SpotifyCredential{
			UserID:       userID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    expiresAt,
		}
		if err := c.db.Create(sp).Error; err != nil {
			return nil, err
		}
		return sp, nil
	}
	if err != nil {
		return nil, err
	}
	sp.AccessToken = accessToken
	sp.RefreshToken = refreshToken
	sp.ExpiresAt = expiresAt
	if err := c.db.Save(sp).Error; err != nil {
		return nil, err
	}
	return sp, nil
}

// UpdateSpotify refreshes the access token of an existing credential.
func (c *Catalog) UpdateSpotify(userID, accessToken string, expiresAt time.Time) (*model.SpotifyCredential, error) {
	sp, err := c.SpotifyByUser(userID)
	if err != nil {
		return nil, err
	}
	sp.AccessToken = accessToken
	sp.ExpiresAt = expiresAt
	if err := c.db.Save(sp).Error; err != nil {
		return nil, err
	}
	return sp, nil
}

// DeleteSpotify removes the credential for a user.
func (c *Catalog) DeleteSpotify(userID string) error {
	if _, err := c.SpotifyByUser(userID); err != nil {
		return err
	}
	return c.db.Where("user_id = ?", userID).Delete(&model.SpotifyCredential{}).Error
}
