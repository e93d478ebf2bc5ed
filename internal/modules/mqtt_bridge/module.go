// Package mqttbridge mirrors the now-playing snapshot to MQTT and accepts
// remote commands over MQTT.
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotctl/pkg/np"
)

// DefaultTopicBase is the topic prefix used when none is configured.
const DefaultTopicBase = "spotctl/v1"

const commandQueue = 16

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
}

type requestClient interface {
	Send(ctx context.Context, cmd string) error
	CurrentTrack(ctx context.Context) (np.Track, error)
}

// Config configures the bridge.
type Config struct {
	NodeID    string
	TopicBase string
	Timeout   time.Duration
}

// NowPlaying is the retained payload published for each track change.
type NowPlaying struct {
	np.Track
	TS int64 `json:"ts"`
}

// Module publishes track changes and forwards commands.
type Module struct {
	log    *zap.Logger
	client mqttClient
	server requestClient
	config Config
	latest chan np.Track
	// commands decouples the MQTT delivery goroutine from datagram requests.
	commands chan []byte
	now      func() time.Time
}

// NewModule creates a bridge. server is where forwarded commands are sent.
func NewModule(log *zap.Logger, client mqttClient, server requestClient, cfg Config) (*Module, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if client == nil {
		return nil, errors.New("mqtt client required")
	}
	if strings.TrimSpace(cfg.NodeID) == "" {
		return nil, errors.New("node_id required")
	}
	if strings.TrimSpace(cfg.TopicBase) == "" {
		cfg.TopicBase = DefaultTopicBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Module{
		log:      log,
		client:   client,
		server:   server,
		config:   cfg,
		latest:   make(chan np.Track, 1),
		commands: make(chan []byte, commandQueue),
		now:      time.Now,
	}, nil
}

// TopicNowPlaying returns the retained now-playing topic.
func TopicNowPlaying(base string, nodeID string) string {
	return base + "/" + nodeID + "/now_playing"
}

// TopicCommands returns the command topic.
func TopicCommands(base string, nodeID string) string {
	return base + "/" + nodeID + "/commands"
}

// TopicPresence returns the retained presence topic.
func TopicPresence(base string, nodeID string) string {
	return base + "/" + nodeID + "/presence"
}

// ObserveTrack queues track for publishing. Only the newest pending track
// is kept, so the caller never blocks.
func (m *Module) ObserveTrack(track np.Track) {
	for {
		select {
		case m.latest <- track:
			return
		default:
		}
		select {
		case <-m.latest:
		default:
		}
	}
}

// Run publishes presence, subscribes to commands, and publishes tracks
// until ctx is done.
func (m *Module) Run(ctx context.Context) error {
	presence := TopicPresence(m.config.TopicBase, m.config.NodeID)
	if err := m.client.Publish(presence, 1, true, []byte("online")); err != nil {
		return err
	}
	defer func() {
		_ = m.client.Publish(presence, 1, true, []byte("offline"))
	}()

	cmdTopic := TopicCommands(m.config.TopicBase, m.config.NodeID)
	if m.server != nil {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.forwardCommands(ctx)
		}()
		defer wg.Wait()

		if err := m.client.Subscribe(cmdTopic, 1, m.enqueueCommand); err != nil {
			return err
		}
		defer m.client.Unsubscribe(cmdTopic)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case track := <-m.latest:
			if err := m.publishTrack(track); err != nil {
				m.log.Warn("cannot publish now playing", zap.Error(err))
			}
		}
	}
}

func (m *Module) publishTrack(track np.Track) error {
	if track.Artists == nil {
		track.Artists = []string{}
	}
	payload, err := json.Marshal(NowPlaying{Track: track, TS: m.now().Unix()})
	if err != nil {
		return err
	}
	return m.client.Publish(TopicNowPlaying(m.config.TopicBase, m.config.NodeID), 1, true, payload)
}

// enqueueCommand runs on the MQTT client's delivery goroutine and must not
// wait on the datagram server.
func (m *Module) enqueueCommand(_ string, payload []byte) {
	msg := append([]byte(nil), payload...)
	select {
	case m.commands <- msg:
	default:
		m.log.Warn("command queue full, dropping mqtt command", zap.ByteString("command", msg))
	}
}

func (m *Module) forwardCommands(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-m.commands:
			m.handleCommand(ctx, payload)
		}
	}
}

func (m *Module) handleCommand(ctx context.Context, payload []byte) {
	cmd := np.ParseRequest(payload)
	if !np.IsKnown(cmd) {
		m.log.Warn("ignoring unknown mqtt command", zap.String("command", cmd))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	if np.ExpectsReply(cmd) {
		track, err := m.server.CurrentTrack(ctx)
		if err != nil {
			m.log.Warn("current track request failed", zap.Error(err))
			return
		}
		m.ObserveTrack(track)
		return
	}
	if err := m.server.Send(ctx, cmd); err != nil {
		m.log.Warn("cannot forward command", zap.String("command", cmd), zap.Error(err))
	}
}
