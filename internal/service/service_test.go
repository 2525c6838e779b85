package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KokopelliMusic/Tawa-3/internal/gateway"
	"github.com/KokopelliMusic/Tawa-3/internal/history"
	"github.com/KokopelliMusic/Tawa-3/internal/hub"
	"github.com/KokopelliMusic/Tawa-3/internal/model"
)

type testEnv struct {
	db       *gorm.DB
	store    *history.Memory
	hub      *hub.Hub
	gw       *gateway.Gateway
	catalog  *Catalog
	sessions *SessionService
	queue    *QueueService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	log := zap.NewNop()
	store := history.NewMemory(history.DefaultSize)
	h := hub.New(1024, 1024, log)
	gw := gateway.New(store, h, log)
	catalog := NewCatalog(db)

	return &testEnv{
		db:       db,
		store:    store,
		hub:      h,
		gw:       gw,
		catalog:  catalog,
		sessions: NewSessionService(db, gw, catalog, 4, 24, log),
		queue:    NewQueueService(db, gw, log),
	}
}

func (e *testEnv) seedUser(t *testing.T, username string) (*model.User, *model.AccessToken) {
	t.Helper()
	user := &model.User{ID: uuid.New().String(), Username: username}
	require.NoError(t, e.db.Create(user).Error)
	token := &model.AccessToken{ID: uuid.New().String(), UserID: user.ID, Token: "tok-" + username}
	require.NoError(t, e.db.Create(token).Error)
	return user, token
}

func (e *testEnv) seedPlaylist(t *testing.T, name string) *model.Playlist {
	t.Helper()
	pl := &model.Playlist{ID: uuid.New().String(), Name: name}
	require.NoError(t, e.db.Create(pl).Error)
	return pl
}

func (e *testEnv) seedSong(t *testing.T, playlistID, title string) *model.Song {
	t.Helper()
	song := &model.Song{
		ID:         uuid.New().String(),
		Title:      title,
		Artists:    "Test Artist",
		PlaylistID: playlistID,
		SongType:   model.SongTypeSpotify,
	}
	require.NoError(t, e.db.Create(song).Error)
	return song
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func (e *testEnv) seedEventType(t *testing.T, name string) *model.EventType {
	t.Helper()
	et := &model.EventType{ID: uuid.New().String(), Name: name, PrettyName: name, Active: true}
	require.NoError(t, e.db.Create(et).Error)
	return et
}
