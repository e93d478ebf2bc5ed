package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotctl/internal/apiserver"
	"github.com/mikey-austin/spotctl/internal/playback"
)

type countingSession struct {
	next chan struct{}
}

func (s *countingSession) Next() error {
	select {
	case s.next <- struct{}{}:
	default:
	}
	return nil
}
func (s *countingSession) Pause() error    { return nil }
func (s *countingSession) Activate() error { return nil }
func (s *countingSession) Play() error     { return nil }

func startServer(t *testing.T, events <-chan playback.Event) *apiserver.Handle {
	t.Helper()
	h := apiserver.Spawn(zap.NewNop(), events, apiserver.Config{Listen: "127.0.0.1:0"})
	t.Cleanup(h.Shutdown)
	if h.Addr() == nil {
		t.Fatalf("bind failed: %v", h.Err())
	}
	return h
}

func TestCurrentTrack(t *testing.T) {
	events := make(chan playback.Event, 1)
	h := startServer(t, events)
	events <- playback.TrackChanged{Item: playback.AudioItem{
		TrackID:      playback.ItemID{Type: playback.ItemTrack, ID: "1"},
		Name:         "Song A",
		URI:          "spotify:track:1",
		UniqueFields: playback.TrackFields{Artists: []playback.Artist{{Name: "Artist X"}}},
	}}

	c := New(h.Addr().String(), time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for {
		track, err := c.CurrentTrack(context.Background())
		if err != nil {
			t.Fatalf("current track: %v", err)
		}
		if track.Name == "Song A" {
			if track.ID != "1" || len(track.Artists) != 1 || track.Artists[0] != "Artist X" {
				t.Fatalf("unexpected track: %+v", track)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("track never updated")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSendReachesSession(t *testing.T) {
	h := startServer(t, nil)
	session := &countingSession{next: make(chan struct{}, 1)}
	h.SetSession(session)

	c := New(h.Addr().String(), time.Second)
	// The session may be installed after the first datagram is read.
	deadline := time.After(2 * time.Second)
	for {
		if err := c.Send(context.Background(), "next"); err != nil {
			t.Fatalf("send: %v", err)
		}
		select {
		case <-session.next:
			return
		case <-time.After(150 * time.Millisecond):
		case <-deadline:
			t.Fatalf("next never reached session")
		}
	}
}

func TestCurrentTrackTimeout(t *testing.T) {
	silent, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer silent.Close()

	c := New(silent.LocalAddr().String(), 50*time.Millisecond)
	if _, err := c.CurrentTrack(context.Background()); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestDialAddr(t *testing.T) {
	cases := map[string]string{
		"0.0.0.0:50505":  "127.0.0.1:50505",
		":50505":         "127.0.0.1:50505",
		"10.0.0.2:50505": "10.0.0.2:50505",
		"not-an-address": "not-an-address",
		"[::]:50505":     "127.0.0.1:50505",
	}
	for in, want := range cases {
		if got := DialAddr(in); got != want {
			t.Fatalf("DialAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
