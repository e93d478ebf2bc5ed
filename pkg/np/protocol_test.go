package np

import (
	"strings"
	"testing"
)

func TestEncodeMatchesWireFormat(t *testing.T) {
	payload, err := Encode(Track{Name: "Song A", ID: "1", URI: "spotify:track:1", Artists: []string{"Artist X"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"song_name":"Song A","song_id":"1","song_artists":["Artist X"],"song_uri":"spotify:track:1"}`
	if string(payload) != want {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestEncodeEmptyTrack(t *testing.T) {
	payload, err := Encode(Track{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"song_name":"","song_id":"","song_artists":[],"song_uri":""}`
	if string(payload) != want {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestDecodeRoundTripsReply(t *testing.T) {
	track, err := Decode([]byte(`{"song_name":"B","song_id":"2","song_artists":null,"song_uri":"u"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if track.Name != "B" || track.ID != "2" || track.URI != "u" {
		t.Fatalf("unexpected track: %+v", track)
	}
	if track.Artists == nil || len(track.Artists) != 0 {
		t.Fatalf("expected empty artists")
	}
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseRequestTrimsAndKeepsCase(t *testing.T) {
	cases := map[string]string{
		"current_track\n": "current_track",
		"  next\r\n":      "next",
		"Pause":           "Pause",
		"seek 30":         "seek 30",
		"":                "",
	}
	for in, want := range cases {
		if got := ParseRequest([]byte(in)); got != want {
			t.Fatalf("ParseRequest(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRequestLossyUTF8(t *testing.T) {
	got := ParseRequest([]byte{'n', 0xff, 'x', '\n'})
	if !strings.Contains(got, "�") {
		t.Fatalf("expected replacement rune, got %q", got)
	}
	if IsKnown(got) {
		t.Fatalf("lossy text must not match vocabulary")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Track{Artists: []string{"a"}}
	clone := orig.Clone()
	clone.Artists[0] = "b"
	if orig.Artists[0] != "a" {
		t.Fatalf("clone shares artists")
	}
}

func TestVocabulary(t *testing.T) {
	for _, cmd := range []string{CmdNext, CmdPause, CmdResume, CmdCurrentTrack} {
		if !IsKnown(cmd) {
			t.Fatalf("expected %s known", cmd)
		}
	}
	if IsKnown("NEXT") {
		t.Fatalf("vocabulary is case-sensitive")
	}
	if !ExpectsReply(CmdCurrentTrack) || ExpectsReply(CmdNext) {
		t.Fatalf("only current_track replies")
	}
}
