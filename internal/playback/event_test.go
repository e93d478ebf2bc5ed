package playback

import "testing"

func TestArtistNamesTrack(t *testing.T) {
	item := AudioItem{
		UniqueFields: TrackFields{Artists: []Artist{{Name: "A"}, {Name: "B"}}},
	}
	names := item.ArtistNames()
	if len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestArtistNamesTrackPointer(t *testing.T) {
	item := AudioItem{UniqueFields: &TrackFields{Artists: []Artist{{Name: "A"}}}}
	if names := item.ArtistNames(); len(names) != 1 || names[0] != "A" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestArtistNamesEpisodeIsEmpty(t *testing.T) {
	item := AudioItem{UniqueFields: EpisodeFields{ShowName: "Show"}}
	names := item.ArtistNames()
	if names == nil || len(names) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", names)
	}
	if names := (AudioItem{}).ArtistNames(); len(names) != 0 {
		t.Fatalf("expected empty names for missing fields")
	}
}
