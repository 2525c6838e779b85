package errs

import "errors"

// Domain sentinel errors, mapped to HTTP status codes in handlers.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrAlreadyClaimed     = errors.New("session already claimed")
	ErrNotClaimed         = errors.New("session not claimed, cannot join")
	ErrUnknownEventType   = errors.New("unknown event type")
	ErrSongNotFound       = errors.New("song not found")
	ErrPlaylistNotFound   = errors.New("playlist not found")
	ErrNowPlayingNotFound = errors.New("nothing currently playing")
	ErrSpotifyNotFound    = errors.New("spotify not connected")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
)
