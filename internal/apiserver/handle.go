// Package apiserver runs the worker that owns the playback session handle
// and the now-playing snapshot, and serves the datagram protocol in np.
package apiserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotctl/internal/playback"
	"github.com/mikey-austin/spotctl/pkg/np"
)

const (
	// DefaultRecvTimeout bounds a single socket receive and therefore how
	// long a command may wait before the worker looks at it.
	DefaultRecvTimeout = 100 * time.Millisecond
	// DefaultBufferSize is the largest datagram read in full.
	DefaultBufferSize = 1024

	commandBuffer = 16
)

// ErrBind is reported by Handle.Err when the request socket could not be bound.
var ErrBind = errors.New("api server bind failed")

// TrackObserver is told about every now-playing change. It is called from
// the worker and must not block.
type TrackObserver interface {
	ObserveTrack(track np.Track)
}

// Config configures the worker.
type Config struct {
	Listen      string
	RecvTimeout time.Duration
	BufferSize  int
	Observer    TrackObserver
}

func (c Config) withDefaults() Config {
	if c.Listen == "" {
		c.Listen = np.DefaultListen
	}
	if c.RecvTimeout <= 0 {
		c.RecvTimeout = DefaultRecvTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	return c
}

type command interface {
	isCommand()
}

type installSession struct {
	session playback.Session
}

type shutdown struct{}

func (installSession) isCommand() {}
func (shutdown) isCommand()       {}

// Handle is the owner's side of a running worker.
type Handle struct {
	log   *zap.Logger
	cmds  chan command
	ready chan struct{}
	done  chan struct{}

	// stopping is closed when the worker leaves its loop. mu guards stopped
	// so that no session is queued after the worker drained cmds.
	stopping chan struct{}
	mu       sync.Mutex
	stopped  bool

	// addr is written before ready is closed, err before done is closed.
	addr net.Addr
	err  error
}

// Spawn starts the worker and returns immediately, possibly before the
// socket is bound.
func Spawn(log *zap.Logger, events <-chan playback.Event, cfg Config) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handle{
		log:      log,
		cmds:     make(chan command, commandBuffer),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		stopping: make(chan struct{}),
	}
	t := newTask(log, events, h.cmds, cfg.withDefaults())
	go t.run(h)
	return h
}

// SetSession installs s as the active session, replacing any previous one.
// Once the worker has stopped s is dropped and released.
func (h *Handle) SetSession(s playback.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		select {
		case h.cmds <- installSession{session: s}:
			return
		case <-h.stopping:
		}
	}
	h.log.Debug("worker stopped, dropping session")
	closeSession(h.log, s)
}

// finish rejects further sessions and releases those still queued.
func (h *Handle) finish() {
	close(h.stopping)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for {
		select {
		case cmd := <-h.cmds:
			if c, ok := cmd.(installSession); ok {
				closeSession(h.log, c.session)
			}
		default:
			return
		}
	}
}

// Shutdown asks the worker to stop and blocks until it has.
func (h *Handle) Shutdown() {
	_ = h.ShutdownContext(context.Background())
}

// ShutdownContext is Shutdown bounded by ctx.
func (h *Handle) ShutdownContext(ctx context.Context) error {
	select {
	case h.cmds <- shutdown{}:
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready is closed once the worker has attempted to bind its socket.
func (h *Handle) Ready() <-chan struct{} {
	return h.ready
}

// Done is closed when the worker has terminated.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Addr waits for the bind attempt and returns the bound address, or nil if
// binding failed.
func (h *Handle) Addr() net.Addr {
	<-h.ready
	return h.addr
}

// Err returns the error that terminated the worker. It is nil while the
// worker runs and after a requested shutdown.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}
