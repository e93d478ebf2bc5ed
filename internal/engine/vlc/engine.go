package vlc

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotctl/internal/playback"
)

// Config configures the VLC engine.
type Config struct {
	BaseURL      string
	Username     string
	Password     string
	Timeout      time.Duration
	PollInterval time.Duration
}

// Engine polls VLC and turns status changes into playback events. A fresh
// Session is offered every time VLC becomes reachable.
type Engine struct {
	log      *zap.Logger
	client   *Client
	config   Config
	events   chan playback.Event
	sessions chan playback.Session

	connected bool
	last      Status
}

// NewEngine creates a VLC engine.
func NewEngine(log *zap.Logger, cfg Config) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("base_url required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	client, err := NewClient(cfg.BaseURL, cfg.Username, cfg.Password, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Engine{
		log:      log,
		client:   client,
		config:   cfg,
		events:   make(chan playback.Event, 32),
		sessions: make(chan playback.Session, 1),
	}, nil
}

// Events returns the playback event stream.
func (e *Engine) Events() <-chan playback.Event {
	return e.events
}

// Sessions returns the stream of sessions, one per (re)connection.
func (e *Engine) Sessions() <-chan playback.Session {
	return e.sessions
}

// Run polls VLC until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()
	for {
		e.poll(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (e *Engine) poll(ctx context.Context) {
	status, err := e.client.Status(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if e.connected {
			e.log.Warn("vlc unreachable", zap.Error(err))
			e.connected = false
			e.emit(ctx, playback.SessionDisconnected{ConnectionID: e.config.BaseURL})
		}
		return
	}
	if !e.connected {
		e.log.Info("vlc connected", zap.String("base_url", e.config.BaseURL))
		e.connected = true
		e.emit(ctx, playback.SessionConnected{ConnectionID: e.config.BaseURL, UserName: e.config.Username})
		e.offerSession(NewSession(e.client, e.config.Timeout))
		e.emitAll(ctx, diff(Status{}, status, true))
	} else {
		e.emitAll(ctx, diff(e.last, status, false))
	}
	e.last = status
}

// offerSession replaces a session nobody has picked up yet.
func (e *Engine) offerSession(s playback.Session) {
	select {
	case stale := <-e.sessions:
		if closer, ok := stale.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	default:
	}
	e.sessions <- s
}

func (e *Engine) emitAll(ctx context.Context, events []playback.Event) {
	for _, ev := range events {
		e.emit(ctx, ev)
	}
}

func (e *Engine) emit(ctx context.Context, ev playback.Event) {
	select {
	case e.events <- ev:
	case <-ctx.Done():
	}
}

// diff derives events from two consecutive statuses. When initial is set
// the current item is always reported.
func diff(prev Status, next Status, initial bool) []playback.Event {
	var out []playback.Event
	trackID := itemID(next)

	if next.State != "stopped" && (initial || next.CurrentPLID != prev.CurrentPLID || next.Meta().Title != prev.Meta().Title) {
		out = append(out, playback.TrackChanged{Item: audioItem(next)})
	}
	if initial || next.State != prev.State {
		position := uint32(max(next.Time, 0) * 1000)
		switch next.State {
		case "playing":
			out = append(out, playback.Playing{TrackID: trackID, PositionMS: position})
		case "paused":
			out = append(out, playback.Paused{TrackID: trackID, PositionMS: position})
		case "stopped":
			out = append(out, playback.Stopped{TrackID: itemID(prev)})
		}
	}
	if !initial && next.Volume != prev.Volume {
		out = append(out, playback.VolumeChanged{Volume: uint16(max(next.Volume, 0))})
	}
	if !initial && next.Random != prev.Random {
		out = append(out, playback.ShuffleChanged{Shuffle: next.Random})
	}
	if !initial && (next.Repeat != prev.Repeat || next.Loop != prev.Loop) {
		out = append(out, playback.RepeatChanged{Repeat: next.Repeat || next.Loop})
	}
	return out
}

func itemID(status Status) playback.ItemID {
	if status.CurrentPLID <= 0 {
		return playback.ItemID{Type: playback.ItemUnknown}
	}
	kind := playback.ItemTrack
	if status.Meta().ShowName != "" {
		kind = playback.ItemEpisode
	}
	return playback.ItemID{Type: kind, ID: strconv.FormatInt(status.CurrentPLID, 10)}
}

func audioItem(status Status) playback.AudioItem {
	meta := status.Meta()
	name := meta.Title
	if name == "" {
		name = meta.Filename
	}
	id := itemID(status)
	item := playback.AudioItem{
		TrackID:    id,
		URI:        "vlc:playlist:" + id.ID,
		Name:       name,
		DurationMS: uint32(max(status.Length, 0) * 1000),
	}
	if id.Type == playback.ItemEpisode {
		item.UniqueFields = playback.EpisodeFields{ShowName: meta.ShowName, Description: meta.Description}
		return item
	}
	fields := playback.TrackFields{Album: meta.Album}
	if meta.Artist != "" {
		fields.Artists = []playback.Artist{{Name: meta.Artist}}
	}
	if meta.AlbumArtist != "" {
		fields.AlbumArtists = []string{meta.AlbumArtist}
	}
	if n, err := strconv.ParseUint(meta.TrackNumber, 10, 32); err == nil {
		fields.Number = uint32(n)
	}
	if n, err := strconv.ParseUint(meta.DiscNumber, 10, 32); err == nil {
		fields.DiscNumber = uint32(n)
	}
	item.UniqueFields = fields
	return item
}
