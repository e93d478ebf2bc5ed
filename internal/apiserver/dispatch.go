package apiserver

import (
	"net"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotctl/pkg/np"
)

func (t *task) handleRequest(conn net.PacketConn, peer net.Addr, payload []byte) {
	cmd := np.ParseRequest(payload)
	log := t.log.With(zap.String("peer", peerHost(peer)))
	log.Debug("received request", zap.String("command", cmd))

	switch cmd {
	case np.CmdNext:
		if s := t.sessions.current; s != nil {
			log.Info("calling next")
			if err := s.Next(); err != nil {
				log.Warn("next failed", zap.Error(err))
			}
		}
	case np.CmdPause:
		if s := t.sessions.current; s != nil {
			log.Info("calling pause")
			if err := s.Pause(); err != nil {
				log.Warn("pause failed", zap.Error(err))
			}
		}
	case np.CmdResume:
		if s := t.sessions.current; s != nil {
			log.Info("calling resume")
			if err := s.Activate(); err != nil {
				log.Warn("activate failed", zap.Error(err))
			}
			if err := s.Play(); err != nil {
				log.Warn("play failed", zap.Error(err))
			}
		}
	case np.CmdCurrentTrack:
		t.replyTrack(log, conn, peer)
	default:
		log.Info("unknown command", zap.String("command", cmd))
	}
}

func (t *task) replyTrack(log *zap.Logger, conn net.PacketConn, peer net.Addr) {
	payload, err := np.Encode(t.track)
	if err != nil {
		log.Warn("cannot encode current track", zap.Error(err))
		return
	}
	if _, err := conn.WriteTo(payload, peer); err != nil {
		log.Warn("cannot send current track", zap.Error(err))
	}
}

func peerHost(addr net.Addr) string {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP.String()
	}
	if addr == nil {
		return ""
	}
	return addr.String()
}
