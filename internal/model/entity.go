package model

import "time"

// Session is a collaborative listening room keyed by its short join code (GORM).
// Created unclaimed; claimed exactly once by the owning user.
type Session struct {
	SessionID  string    `gorm:"primaryKey;size:8"`
	PlaylistID *string   `gorm:"type:uuid;index"`
	UserID     *string   `gorm:"type:uuid;index"`
	Claimed    bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Session) TableName() string { return "sessions" }

// EventType is a registry entry for events a session may enable.
type EventType struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	Name       string `gorm:"size:255;not null;uniqueIndex"`
	PrettyName string `gorm:"size:255;not null"`
	Active     bool   `gorm:"not null;default:true"`
}

func (EventType) TableName() string { return "event_types" }

// SessionSettings is the one-to-one settings bag of a claimed session.
// The toggle columns carry no GORM default: claim writes every field
// explicitly, so a stored false is a real false and never replaced by a
// column default on INSERT.
type SessionSettings struct {
	SessionID string `gorm:"primaryKey;size:8"`

	// Music settings
	AllowSpotify     bool `gorm:"not null"`
	AllowYoutube     bool `gorm:"not null"`
	YoutubeOnlyAudio bool `gorm:"not null"`

	// Event settings
	AllowEvents    bool        `gorm:"not null"`
	EventFrequency int         `gorm:"not null"`
	AllowedEvents  []EventType `gorm:"many2many:session_settings_allowed_events"`
	RandomWordList string      `gorm:"size:1000;not null;default:'[]'"`

	// Permissions
	AnyoneCanUsePlayerControls bool `gorm:"not null"`
	AnyoneCanAddToQueue        bool `gorm:"not null"`
	AnyoneCanRemoveFromQueue   bool `gorm:"not null"`
	AnyoneCanSeeHistory        bool `gorm:"not null"`
	AnyoneCanSeeQueue          bool `gorm:"not null"`
	AnyoneCanSeePlaylist       bool `gorm:"not null"`

	// Queue settings
	AlgorithmUsed string `gorm:"size:255;not null;default:'random'"`

	// Misc
	AllowGuests bool `gorm:"not null"`
}

func (SessionSettings) TableName() string { return "session_settings" }

// QueueEntry is one queued song for a session; positions form a dense
// 0..n-1 permutation after every queue replace.
type QueueEntry struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	SessionID string `gorm:"size:8;not null;index"`
	SongID    string `gorm:"type:uuid;not null;index"`
	Position  int    `gorm:"not null;default:0"`
}

func (QueueEntry) TableName() string { return "queue_entries" }

// NowPlaying is the single currently-playing song pointer for a session.
type NowPlaying struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	SessionID string    `gorm:"size:8;not null;uniqueIndex"`
	SongID    string    `gorm:"type:uuid;not null"`
	StartedAt time.Time `gorm:"autoCreateTime"`
}

func (NowPlaying) TableName() string { return "now_playing" }

// User is a collaborator record consumed by identity lookup.
type User struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	Username       string  `gorm:"size:150;not null;uniqueIndex"`
	ProfilePicture *string `gorm:"size:255"`
	Staff          bool    `gorm:"not null;default:false"`
}

func (User) TableName() string { return "users" }

// AccessToken is an opaque bearer token bound to a user.
type AccessToken struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AccessToken) TableName() string { return "access_tokens" }

// Playlist is a collaborator record; this service only checks existence
// and references it from claimed sessions.
type Playlist struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:100;not null"`
	Description string    `gorm:"type:text"`
	CreatorID   *string   `gorm:"type:uuid"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Playlist) TableName() string { return "playlists" }

// Song source platforms.
const (
	SongTypeSpotify    = "spotify"
	SongTypeYoutube    = "youtube"
	SongTypeSoundcloud = "soundcloud"
	SongTypeMP3        = "mp3"
)

// Song is a collaborator record referenced by queue entries and now-playing.
type Song struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	Title      string  `gorm:"size:200;not null"`
	Artists    string  `gorm:"size:200;not null"`
	Album      string  `gorm:"size:200"`
	Length     int     `gorm:"not null;default:0"`
	Cover      string  `gorm:"size:200"`
	PlaylistID string  `gorm:"type:uuid;not null;index"`
	AddedByID  *string `gorm:"type:uuid"`
	PlatformID string  `gorm:"size:200"`
	SongType   string  `gorm:"size:20;not null;default:'spotify'"`
	PlayCount  int     `gorm:"not null;default:0"`
}

func (Song) TableName() string { return "songs" }

// SpotifyCredential holds the external credential snapshot for a user,
// one-to-one, embedded into the session_created event on claim.
type SpotifyCredential struct {
	UserID       string    `gorm:"type:uuid;primaryKey"`
	AccessToken  string    `gorm:"size:255;not null"`
	RefreshToken string    `gorm:"size:255;not null"`
	ExpiresAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (SpotifyCredential) TableName() string { return "spotify_credentials" }

// AllModels lists every entity for AutoMigrate (tests and dev bootstrap).
func AllModels() []any {
	return []any{
		&Session{},
		&EventType{},
		&SessionSettings{},
		&QueueEntry{},
		&NowPlaying{},
		&User{},
		&AccessToken{},
		&Playlist{},
		&Song{},
		&SpotifyCredential{},
	}
}
