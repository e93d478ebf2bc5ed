// Package playback describes the playback engine as seen by spotd: the
// events it emits and the session capability it hands out.
package playback

import "time"

// ItemType identifies the kind of a playable item.
type ItemType string

const (
	ItemTrack   ItemType = "track"
	ItemEpisode ItemType = "episode"
	ItemUnknown ItemType = "unknown"
)

// ItemID is a typed item identifier.
type ItemID struct {
	Type ItemType
	ID   string
}

func (i ItemID) String() string {
	return i.ID
}

// Artist is a track contributor.
type Artist struct {
	ID   string
	Name string
}

// UniqueFields carries metadata that only exists for one item kind. It is
// either TrackFields or EpisodeFields.
type UniqueFields interface {
	uniqueFields()
}

// TrackFields holds music track metadata.
type TrackFields struct {
	Artists      []Artist
	Album        string
	AlbumArtists []string
	Popularity   uint8
	Number       uint32
	DiscNumber   uint32
}

// EpisodeFields holds podcast episode metadata.
type EpisodeFields struct {
	Description string
	PublishTime time.Time
	ShowName    string
}

func (TrackFields) uniqueFields()   {}
func (EpisodeFields) uniqueFields() {}

// AudioItem describes the item a TrackChanged event refers to.
type AudioItem struct {
	TrackID      ItemID
	URI          string
	Name         string
	DurationMS   uint32
	UniqueFields UniqueFields
}

// ArtistNames returns the artist names of a track; episodes have none.
func (a AudioItem) ArtistNames() []string {
	switch fields := a.UniqueFields.(type) {
	case TrackFields:
		out := make([]string, 0, len(fields.Artists))
		for _, artist := range fields.Artists {
			out = append(out, artist.Name)
		}
		return out
	case *TrackFields:
		if fields == nil {
			return []string{}
		}
		return AudioItem{UniqueFields: *fields}.ArtistNames()
	default:
		return []string{}
	}
}

// Event is the closed set of events emitted by the playback engine.
type Event interface {
	isEvent()
}

type (
	PlayRequestIDChanged struct {
		PlayRequestID uint64
	}
	Stopped struct {
		PlayRequestID uint64
		TrackID       ItemID
	}
	Loading struct {
		PlayRequestID uint64
		TrackID       ItemID
		PositionMS    uint32
	}
	Preloading struct {
		TrackID ItemID
	}
	Playing struct {
		PlayRequestID uint64
		TrackID       ItemID
		PositionMS    uint32
	}
	Paused struct {
		PlayRequestID uint64
		TrackID       ItemID
		PositionMS    uint32
	}
	TimeToPreloadNextTrack struct {
		PlayRequestID uint64
		TrackID       ItemID
	}
	EndOfTrack struct {
		PlayRequestID uint64
		TrackID       ItemID
	}
	Unavailable struct {
		PlayRequestID uint64
		TrackID       ItemID
	}
	VolumeChanged struct {
		Volume uint16
	}
	PositionCorrection struct {
		PlayRequestID uint64
		TrackID       ItemID
		PositionMS    uint32
	}
	Seeked struct {
		PlayRequestID uint64
		TrackID       ItemID
		PositionMS    uint32
	}
	TrackChanged struct {
		Item AudioItem
	}
	SessionConnected struct {
		ConnectionID string
		UserName     string
	}
	SessionDisconnected struct {
		ConnectionID string
		UserName     string
	}
	SessionClientChanged struct {
		ClientID        string
		ClientName      string
		ClientBrandName string
		ClientModelName string
	}
	ShuffleChanged struct {
		Shuffle bool
	}
	RepeatChanged struct {
		Repeat bool
	}
	AutoPlayChanged struct {
		AutoPlay bool
	}
	FilterExplicitContentChanged struct {
		Filter bool
	}
)

func (PlayRequestIDChanged) isEvent()         {}
func (Stopped) isEvent()                      {}
func (Loading) isEvent()                      {}
func (Preloading) isEvent()                   {}
func (Playing) isEvent()                      {}
func (Paused) isEvent()                       {}
func (TimeToPreloadNextTrack) isEvent()       {}
func (EndOfTrack) isEvent()                   {}
func (Unavailable) isEvent()                  {}
func (VolumeChanged) isEvent()                {}
func (PositionCorrection) isEvent()           {}
func (Seeked) isEvent()                       {}
func (TrackChanged) isEvent()                 {}
func (SessionConnected) isEvent()             {}
func (SessionDisconnected) isEvent()          {}
func (SessionClientChanged) isEvent()         {}
func (ShuffleChanged) isEvent()               {}
func (RepeatChanged) isEvent()                {}
func (AutoPlayChanged) isEvent()              {}
func (FilterExplicitContentChanged) isEvent() {}
