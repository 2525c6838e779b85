package model

import "time"

// API views of the entities (not GORM). Each entity has one explicit
// serializer so the wire shape is decoupled from storage.

// SessionJSON is the API view of a Session.
type SessionJSON struct {
	SessionID  string    `json:"session_id"`
	User       *UserJSON `json:"user"`
	PlaylistID *string   `json:"playlist_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Claimed    bool      `json:"claimed"`
}

// NewSessionJSON serializes a session with its (optional) owner.
func NewSessionJSON(s *Session, owner *User) SessionJSON {
	out := SessionJSON{
		SessionID:  s.SessionID,
		PlaylistID: s.PlaylistID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		Claimed:    s.Claimed,
	}
	if owner != nil {
		u := NewUserJSON(owner)
		out.User = &u
	}
	return out
}

// UserJSON is the API view of a User.
type UserJSON struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profile_picture"`
}

// NewUserJSON serializes a user.
func NewUserJSON(u *User) UserJSON {
	return UserJSON{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// EventTypeJSON is the API view of an EventType.
type EventTypeJSON struct {
	Name       string `json:"name"`
	PrettyName string `json:"pretty_name"`
	Active     bool   `json:"active"`
}

// NewEventTypeJSON serializes an event type.
func NewEventTypeJSON(e *EventType) EventTypeJSON {
	return EventTypeJSON{Name: e.Name, PrettyName: e.PrettyName, Active: e.Active}
}

// SettingsJSON is the API view of SessionSettings, session nested.
type SettingsJSON struct {
	Session                    SessionJSON     `json:"session"`
	AllowSpotify               bool            `json:"allow_spotify"`
	AllowYoutube               bool            `json:"allow_youtube"`
	YoutubeOnlyAudio           bool            `json:"youtube_only_audio"`
	AllowEvents                bool            `json:"allow_events"`
	EventFrequency             int             `json:"event_frequency"`
	AllowedEvents              []EventTypeJSON `json:"allowed_events"`
	RandomWordList             string          `json:"random_word_list"`
	AnyoneCanUsePlayerControls bool            `json:"anyone_can_use_player_controls"`
	AnyoneCanAddToQueue        bool            `json:"anyone_can_add_to_queue"`
	AnyoneCanRemoveFromQueue   bool            `json:"anyone_can_remove_from_queue"`
	AnyoneCanSeeHistory        bool            `json:"anyone_can_see_history"`
	AnyoneCanSeeQueue          bool            `json:"anyone_can_see_queue"`
	AnyoneCanSeePlaylist       bool            `json:"anyone_can_see_playlist"`
	AlgorithmUsed              string          `json:"algorithm_used"`
	AllowGuests                bool            `json:"allow_guests"`
}

// NewSettingsJSON serializes settings with the session and its owner.
func NewSettingsJSON(st *SessionSettings, s *Session, owner *User) SettingsJSON {
	events := make([]EventTypeJSON, 0, len(st.AllowedEvents))
	for i := range st.AllowedEvents {
		events = append(events, NewEventTypeJSON(&st.AllowedEvents[i]))
	}
	return SettingsJSON{
		Session:                    NewSessionJSON(s, owner),
		AllowSpotify:               st.AllowSpotify,
		AllowYoutube:               st.AllowYoutube,
		YoutubeOnlyAudio:           st.YoutubeOnlyAudio,
		AllowEvents:                st.AllowEvents,
		EventFrequency:             st.EventFrequency,
		AllowedEvents:              events,
		RandomWordList:             st.RandomWordList,
		AnyoneCanUsePlayerControls: st.AnyoneCanUsePlayerControls,
		AnyoneCanAddToQueue:        st.AnyoneCanAddToQueue,
		AnyoneCanRemoveFromQueue:   st.AnyoneCanRemoveFromQueue,
		AnyoneCanSeeHistory:        st.AnyoneCanSeeHistory,
		AnyoneCanSeeQueue:          st.AnyoneCanSeeQueue,
		AnyoneCanSeePlaylist:       st.AnyoneCanSeePlaylist,
		AlgorithmUsed:              st.AlgorithmUsed,
		AllowGuests:                st.AllowGuests,
	}
}

// SongJSON is the API view of a Song.
type SongJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artists   string `json:"artists"`
	Album     string `json:"album"`
	Length    int    `json:"length"`
	Cover     string `json:"cover"`
	SongType  string `json:"song_type"`
	PlayCount int    `json:"play_count"`
}

// NewSongJSON serializes a song.
func NewSongJSON(s *Song) SongJSON {
	return SongJSON{
		ID:        s.ID,
		Title:     s.Title,
		Artists:   s.Artists,
		Album:     s.Album,
		Length:    s.Length,
		Cover:     s.Cover,
		SongType:  s.SongType,
		PlayCount: s.PlayCount,
	}
}

// QueueEntryJSON is the API view of a QueueEntry.
type QueueEntryJSON struct {
	SessionID string   `json:"session_id"`
	Song      SongJSON `json:"song"`
	Position  int      `json:"position"`
}

// NewQueueEntryJSON serializes a queue entry with its song.
func NewQueueEntryJSON(q *QueueEntry, song *Song) QueueEntryJSON {
	return QueueEntryJSON{SessionID: q.SessionID, Song: NewSongJSON(song), Position: q.Position}
}

// NowPlayingJSON is the API view of NowPlaying.
type NowPlayingJSON struct {
	SessionID string    `json:"session_id"`
	Song      SongJSON  `json:"song"`
	StartedAt time.Time `json:"started_at"`
}

// NewNowPlayingJSON serializes the now-playing pointer with its song.
func NewNowPlayingJSON(np *NowPlaying, song *Song) NowPlayingJSON {
	return NowPlayingJSON{SessionID: np.SessionID, Song: NewSongJSON(song), StartedAt: np.StartedAt}
}

// SpotifyJSON is the API view of SpotifyCredential.
type SpotifyJSON struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewSpotifyJSON serializes a spotify credential snapshot.
func NewSpotifyJSON(sp *SpotifyCredential) SpotifyJSON {
	return SpotifyJSON{
		UserID:       sp.UserID,
		AccessToken:  sp.AccessToken,
		RefreshToken: sp.RefreshToken,
		ExpiresAt:    sp.ExpiresAt,
	}
}

// ClaimSettings is the settings payload supplied with a claim request.
// AllowedEvents names are resolved against the event type registry.
// Toggles are pointers: nil means the field was absent and takes the
// session default, an explicit false is stored as false.
type ClaimSettings struct {
	AllowSpotify               *bool    `json:"allow_spotify"`
	AllowYoutube               *bool    `json:"allow_youtube"`
	YoutubeOnlyAudio           *bool    `json:"youtube_only_audio"`
	AllowEvents                *bool    `json:"allow_events"`
	EventFrequency             *int     `json:"event_frequency"`
	AllowedEvents              []string `json:"allowed_events"`
	RandomWordList             string   `json:"random_word_list"`
	AnyoneCanUsePlayerControls *bool    `json:"anyone_can_use_player_controls"`
	AnyoneCanAddToQueue        *bool    `json:"anyone_can_add_to_queue"`
	AnyoneCanRemoveFromQueue   *bool    `json:"anyone_can_remove_from_queue"`
	AnyoneCanSeeHistory        *bool    `json:"anyone_can_see_history"`
	AnyoneCanSeeQueue          *bool    `json:"anyone_can_see_queue"`
	AnyoneCanSeePlaylist       *bool    `json:"anyone_can_see_playlist"`
	AlgorithmUsed              string   `json:"algorithm_used"`
	AllowGuests                *bool    `json:"allow_guests"`
}

// ClaimRequest is the body of POST /sessions/:id/claim.
type ClaimRequest struct {
	PlaylistID string        `json:"playlist_id" binding:"required"`
	Settings   ClaimSettings `json:"settings"`
}

// PushEventRequest is the body of POST /sessions/:id/events.
type PushEventRequest struct {
	ClientType string `json:"client_type" binding:"required"`
	EventType  string `json:"event_type" binding:"required"`
	Data       any    `json:"data"`
}

// SetQueueRequest is the body of PUT /sessions/:id/queue.
type SetQueueRequest struct {
	IDs []string `json:"ids"`
}

// SetNowPlayingRequest is the body of PUT /sessions/:id/now-playing.
type SetNowPlayingRequest struct {
	SongID string `json:"song_id" binding:"required"`
}

// SetSpotifyRequest is the body of PUT /spotify.
type SetSpotifyRequest struct {
	AccessToken  string    `json:"access_token" binding:"required"`
	RefreshToken string    `json:"refresh_token" binding:"required"`
	ExpiresAt    time.Time `json:"expires_at" binding:"required"`
}

// UpdateSpotifyRequest is the body of PATCH /spotify.
type UpdateSpotifyRequest struct {
	AccessToken string    `json:"access_token" binding:"required"`
	ExpiresAt   time.Time `json:"expires_at" binding:"required"`
}
