package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// Generator creates client identifiers of the form <prefix>-<random hex>.
type Generator struct {
	Prefix string
}

// NewID returns a new identifier. If the system random source fails the
// current time is used instead.
func (g Generator) NewID() string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "spotctl"
	}
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return prefix + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return prefix + "-" + hex.EncodeToString(b[:])
}
