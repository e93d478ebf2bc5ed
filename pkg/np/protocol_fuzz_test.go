package np

import (
	"testing"
	"unicode/utf8"
)

func FuzzParseRequest(f *testing.F) {
	f.Add([]byte("current_track\n"))
	f.Add([]byte{0xff, 0xfe})
	f.Add([]byte(""))

	f.Fuzz(func(t *testing.T, payload []byte) {
		cmd := ParseRequest(payload)
		if !utf8.ValidString(cmd) {
			t.Fatalf("invalid utf-8 output %q", cmd)
		}
	})
}
