package domain

import "testing"

func TestTrackRef_Identity(t *testing.T) {
	tests := []struct {
		name string
		a, b TrackRef
		same bool
	}{
		{
			name: "case insensitive",
			a:    TrackRef{Title: "Blueming", Artists: []string{"IU"}},
			b:    TrackRef{Title: "BLUEMING", Artists: []string{"iu"}},
			same: true,
		},
		{
			name: "primary artist decides",
			a:    TrackRef{Title: "Song", Artists: []string{"A", "B"}},
			b:    TrackRef{Title: "Song", Artists: []string{"A", "C"}},
			same: true,
		},
		{
			name: "different titles differ",
			a:    TrackRef{Title: "One", Artists: []string{"A"}},
			b:    TrackRef{Title: "Two", Artists: []string{"A"}},
			same: false,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Identity() == tc.b.Identity(); got != tc.same {
				t.Fatalf("expected same=%v, got %v", tc.same, got)
			}
		})
	}
}

func TestTrackRef_PrimaryArtist(t *testing.T) {
	if got := (TrackRef{}).PrimaryArtist(); got != "" {
		t.Fatalf("expected empty primary artist, got %q", got)
	}
	if got := (TrackRef{Artists: []string{"First", "Second"}}).PrimaryArtist(); got != "First" {
		t.Fatalf("expected first artist, got %q", got)
	}
}
