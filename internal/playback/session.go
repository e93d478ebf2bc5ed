package playback

// Session is a remote-control handle for an active playback session. Every
// call is a remote operation that may fail.
type Session interface {
	Next() error
	Pause() error
	Activate() error
	Play() error
}
