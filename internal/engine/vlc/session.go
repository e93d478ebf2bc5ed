package vlc

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrSessionClosed is returned by a session that has been replaced.
var ErrSessionClosed = errors.New("vlc session closed")

// Session is a playback.Session bound to one VLC connection.
type Session struct {
	client  *Client
	timeout time.Duration
	closed  atomic.Bool
}

// NewSession creates a session. timeout bounds each remote call.
func NewSession(client *Client, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Session{client: client, timeout: timeout}
}

// Next skips to the next playlist item.
func (s *Session) Next() error {
	return s.command("pl_next")
}

// Pause pauses playback; it does nothing if already paused.
func (s *Session) Pause() error {
	return s.command("pl_forcepause")
}

// Activate checks that VLC is reachable.
func (s *Session) Activate() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, err := s.client.Status(ctx)
	return err
}

// Play resumes playback; it does nothing if already playing.
func (s *Session) Play() error {
	return s.command("pl_forceresume")
}

// Close marks the session unusable.
func (s *Session) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Session) command(name string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Command(ctx, name)
}
