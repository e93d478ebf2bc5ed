// Package np defines the now-playing datagram protocol spoken by spotd.
package np

import (
	"encoding/json"
	"strings"
)

// DefaultListen is the address spotd binds when none is configured.
const DefaultListen = "0.0.0.0:50505"

// Command vocabulary. Matching is case-sensitive after trimming.
const (
	CmdNext         = "next"
	CmdPause        = "pause"
	CmdResume       = "resume"
	CmdCurrentTrack = "current_track"
)

// Track is the reply payload for current_track.
type Track struct {
	Name    string   `json:"song_name"`
	ID      string   `json:"song_id"`
	Artists []string `json:"song_artists"`
	URI     string   `json:"song_uri"`
}

// EmptyTrack returns the snapshot reported before any track change.
func EmptyTrack() Track {
	return Track{Artists: []string{}}
}

// Clone returns a copy that shares no memory with t.
func (t Track) Clone() Track {
	out := t
	out.Artists = make([]string, len(t.Artists))
	copy(out.Artists, t.Artists)
	return out
}

// Encode marshals a track, always emitting song_artists as an array.
func Encode(t Track) ([]byte, error) {
	if t.Artists == nil {
		t.Artists = []string{}
	}
	return json.Marshal(t)
}

// Decode parses a current_track reply.
func Decode(payload []byte) (Track, error) {
	var t Track
	if err := json.Unmarshal(payload, &t); err != nil {
		return Track{}, err
	}
	if t.Artists == nil {
		t.Artists = []string{}
	}
	return t, nil
}

// ParseRequest decodes a datagram into a command string. Invalid UTF-8 is
// replaced with U+FFFD and surrounding whitespace is removed.
func ParseRequest(payload []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(payload), "�"))
}

// IsKnown reports whether cmd is part of the vocabulary.
func IsKnown(cmd string) bool {
	switch cmd {
	case CmdNext, CmdPause, CmdResume, CmdCurrentTrack:
		return true
	default:
		return false
	}
}

// ExpectsReply reports whether the server answers cmd.
func ExpectsReply(cmd string) bool {
	return cmd == CmdCurrentTrack
}
