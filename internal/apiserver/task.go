package apiserver

import (
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotctl/internal/playback"
	"github.com/mikey-austin/spotctl/pkg/np"
)

// task is the worker. Everything it holds is touched only by run.
type task struct {
	log      *zap.Logger
	config   Config
	events   <-chan playback.Event
	cmds     <-chan command
	sessions sessionRegistry
	track    np.Track
}

func newTask(log *zap.Logger, events <-chan playback.Event, cmds <-chan command, cfg Config) *task {
	return &task{
		log:      log,
		config:   cfg,
		events:   events,
		cmds:     cmds,
		sessions: sessionRegistry{log: log},
		track:    np.EmptyTrack(),
	}
}

func (t *task) run(h *Handle) {
	defer close(h.done)
	defer h.finish()

	conn, err := net.ListenPacket("udp", t.config.Listen)
	if err != nil {
		h.err = fmt.Errorf("%w: %s: %v", ErrBind, t.config.Listen, err)
		t.log.Error("cannot start api server", zap.String("listen", t.config.Listen), zap.Error(err))
		close(h.ready)
		return
	}
	defer conn.Close()
	h.addr = conn.LocalAddr()
	close(h.ready)
	t.log.Info("api server listening", zap.String("addr", conn.LocalAddr().String()))

	buf := make([]byte, t.config.BufferSize)
	for {
		t.pollEvent()
		if t.pollCommand() {
			break
		}
		t.pollSocket(conn, buf)
	}

	t.log.Debug("shutting down api server")
	t.sessions.release()
}

func (t *task) pollEvent() {
	if t.events == nil {
		return
	}
	select {
	case ev, ok := <-t.events:
		if !ok {
			t.log.Debug("playback event stream closed")
			t.events = nil
			return
		}
		t.handleEvent(ev)
	default:
	}
}

// pollCommand reports whether the worker must stop.
func (t *task) pollCommand() bool {
	select {
	case cmd := <-t.cmds:
		switch c := cmd.(type) {
		case installSession:
			t.log.Info("setting session")
			t.sessions.install(c.session)
		case shutdown:
			return true
		}
	default:
	}
	return false
}

func (t *task) pollSocket(conn net.PacketConn, buf []byte) {
	if err := conn.SetReadDeadline(time.Now().Add(t.config.RecvTimeout)); err != nil {
		t.log.Warn("cannot set read deadline", zap.Error(err))
	}
	n, peer, err := conn.ReadFrom(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return
		}
		t.log.Debug("receive failed", zap.Error(err))
		return
	}
	t.handleRequest(conn, peer, buf[:n])
}

func (t *task) handleEvent(ev playback.Event) {
	switch e := ev.(type) {
	case playback.TrackChanged:
		t.setTrack(e.Item)
	case playback.PlayRequestIDChanged:
	case playback.Stopped:
	case playback.Loading:
	case playback.Preloading:
	case playback.Playing:
	case playback.Paused:
	case playback.TimeToPreloadNextTrack:
	case playback.EndOfTrack:
	case playback.Unavailable:
	case playback.VolumeChanged:
	case playback.PositionCorrection:
	case playback.Seeked:
	case playback.SessionConnected:
	case playback.SessionDisconnected:
	case playback.SessionClientChanged:
	case playback.ShuffleChanged:
	case playback.RepeatChanged:
	case playback.AutoPlayChanged:
	case playback.FilterExplicitContentChanged:
	default:
		t.log.Warn("unhandled playback event", zap.String("type", fmt.Sprintf("%T", ev)))
	}
}

// setTrack replaces the snapshot wholesale.
func (t *task) setTrack(item playback.AudioItem) {
	t.log.Debug("changing currently played song", zap.String("name", item.Name), zap.String("uri", item.URI))
	t.track = np.Track{
		Name:    item.Name,
		ID:      item.TrackID.ID,
		URI:     item.URI,
		Artists: item.ArtistNames(),
	}
	if t.config.Observer != nil {
		t.config.Observer.ObserveTrack(t.track.Clone())
	}
}
