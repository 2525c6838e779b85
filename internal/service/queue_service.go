package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/KokopelliMusic/Tawa-3/internal/errs"
	"github.com/KokopelliMusic/Tawa-3/internal/gateway"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
)

// QueueService maintains the ordered playback queue and the now-playing
// pointer per session, notifying session watchers through the gateway.
type QueueService struct {
	db  *gorm.DB
	gw  *gateway.Gateway
	log *zap.Logger
}

// NewQueueService creates a queue service.
func NewQueueService(db *gorm.DB, gw *gateway.Gateway, log *zap.Logger) *QueueService {
	return &QueueService{db: db, gw: gw, log: log}
}

// queueEventPayload is the data of the set_queue event.
type queueEventPayload struct {
	Queue []model.QueueEntryJSON `json:"queue"`
}

// playSongPayload is the data of the play_song event.
type playSongPayload struct {
	Song model.SongJSON `json:"song"`
}

// SetQueue replaces the whole queue of a session with the given songs, in
// order, positions 0..n-1. All-or-nothing: any unknown song aborts with the
// prior queue intact.
func (q *QueueService) SetQueue(ctx context.Context, code string, songIDs []string) ([]model.QueueEntryJSON, error) {
	var out []model.QueueEntryJSON
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess model.Session
		if err := tx.Where("session_id = ?", code).First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrSessionNotFound
			}
			return err
		}

		// Validate every song before touching the queue.
		songs := make([]model.Song, 0, len(songIDs))
		for _, id := range songIDs {
			var song model.Song
			if err := tx.Where("id = ?", id).First(&song).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", errs.ErrSongNotFound, id)
				}
				return err
			}
			songs = append(songs, song)
		}

		if err := tx.Where("session_id = ?", code).Delete(&model.QueueEntry{}).Error; err != nil {
			return err
		}

		out = make([]model.QueueEntryJSON, 0, len(songs))
		for i := range songs {
			entry := &model.QueueEntry{
				ID:        uuid.New().String(),
				SessionID: code,
				SongID:    songs[i].ID,
				Position:  i,
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
			out = append(out, model.NewQueueEntryJSON(entry, &songs[i]))
		}

		return q.gw.PublishServerEvent(ctx, code, gateway.ClientTypeSystem, "set_queue", queueEventPayload{Queue: out})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetQueue returns the session's queue ordered by position ascending.
func (q *QueueService) GetQueue(ctx context.Context, code string) ([]model.QueueEntryJSON, error) {
	var entries []model.QueueEntry
	if err := q.db.WithContext(ctx).Where("session_id = ?", code).
		Order("position asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	out := make([]model.QueueEntryJSON, 0, len(entries))
	for i := range entries {
		var song model.Song
		if err := q.db.WithContext(ctx).Where("id = ?", entries[i].SongID).First(&song).Error; err != nil {
			return nil, err
		}
		out = append(out, model.NewQueueEntryJSON(&entries[i], &song))
	}
	return out, nil
}

// SetNowPlaying atomically replaces the session's now-playing pointer:
// the old pointer is dropped, the new one created, the song's play count
// incremented, its queue entry (if any) removed, and the play_song event
// published. A failure anywhere leaves the prior state intact.
func (q *QueueService) SetNowPlaying(ctx context.Context, code, songID string) (*model.NowPlayingJSON, error) {
	var out model.NowPlayingJSON
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess model.Session
		if err := tx.Where("session_id = ?", code).First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrSessionNotFound
			}
			return err
		}
		var song model.Song
		if err := tx.Where("id = ?", songID).First(&song).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", errs.ErrSongNotFound, songID)
			}
			return err
		}

		if err := tx.Where("session_id = ?", code).Delete(&model.NowPlaying{}).Error; err != nil {
			return err
		}
		np := &model.NowPlaying{
			ID:        uuid.New().String(),
			SessionID: code,
			SongID:    song.ID,
		}
		if err := tx.Create(np).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Song{}).Where("id = ?", song.ID).
			UpdateColumn("play_count", gorm.Expr("play_count + 1")).Error; err != nil {
			return err
		}
		song.PlayCount++

		if err := tx.Where("session_id = ? AND song_id = ?", code, song.ID).
			Delete(&model.QueueEntry{}).Error; err != nil {
			return err
		}

		out = model.NewNowPlayingJSON(np, &song)
		return q.gw.PublishServerEvent(ctx, code, gateway.ClientTypeSystem, "play_song", playSongPayload{Song: model.NewSongJSON(&song)})
	})
	if err != nil {
		return nil, err
	}

	q.log.Info("now playing changed",
		zap.String("session_id", code),
		zap.String("song_id", songID))
	return &out, nil
}

// GetNowPlaying returns the session's current now-playing pointer.
func (q *QueueService) GetNowPlaying(ctx context.Context, code string) (*model.NowPlayingJSON, error) {
	var np model.NowPlaying
	if err := q.db.WithContext(ctx).Where("session_id = ?", code).First(&np).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNowPlayingNotFound
		}
		return nil, err
	}
	var song model.Song
	if err := q.db.WithContext(ctx).Where("id = ?", np.SongID).First(&song).Error; err != nil {
		return nil, err
	}
	out := model.NewNowPlayingJSON(&np, &song)
	return &out, nil
}
