package apiserver

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotctl/internal/playback"
)

// Module runs the worker under the daemon supervisor.
type Module struct {
	log      *zap.Logger
	events   <-chan playback.Event
	sessions <-chan playback.Session
	config   Config
}

// NewModule creates an api server module. Sessions received on sessions are
// installed in order; either channel may be nil.
func NewModule(log *zap.Logger, events <-chan playback.Event, sessions <-chan playback.Session, cfg Config) *Module {
	if log == nil {
		log = zap.NewNop()
	}
	return &Module{log: log, events: events, sessions: sessions, config: cfg}
}

// Run spawns the worker and stops it when ctx is done.
func (m *Module) Run(ctx context.Context) error {
	h := Spawn(m.log, m.events, m.config)
	sessions := m.sessions
	for {
		select {
		case <-ctx.Done():
			m.log.Info("waiting for api server to stop")
			h.Shutdown()
			m.log.Info("api server stopped")
			return nil
		case <-h.Done():
			return h.Err()
		case s, ok := <-sessions:
			if !ok {
				sessions = nil
				continue
			}
			h.SetSession(s)
		}
	}
}
