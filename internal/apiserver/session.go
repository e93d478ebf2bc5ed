package apiserver

import (
	"io"
	"reflect"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotctl/internal/playback"
)

// sessionRegistry holds at most one session.
type sessionRegistry struct {
	log     *zap.Logger
	current playback.Session
}

func (r *sessionRegistry) install(s playback.Session) {
	prev := r.current
	r.current = s
	if prev != nil && !sameSession(prev, s) {
		r.closeSession(prev)
	}
}

func (r *sessionRegistry) release() {
	if r.current != nil {
		r.closeSession(r.current)
		r.current = nil
	}
}

func (r *sessionRegistry) closeSession(s playback.Session) {
	closeSession(r.log, s)
}

func closeSession(log *zap.Logger, s playback.Session) {
	closer, ok := s.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Warn("cannot release session", zap.Error(err))
	}
}

func sameSession(a, b playback.Session) bool {
	if b == nil {
		return false
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
