package titles

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/spimport/internal/shared"
)

func TestParse(t *testing.T) {
	tc := []struct {
		name       string
		title      string
		wantArtist string
		wantSong   string
	}{
		{
			name:       "artist and qualifier",
			title:      "Daft Punk - One More Time [Official Audio]",
			wantArtist: "daft punk",
			wantSong:   "one more time",
		},
		{
			name:       "no qualifier keeps leading space",
			title:      "Queen - Bohemian Rhapsody",
			wantArtist: "queen",
			wantSong:   " bohemian rhapsody",
		},
		{
			name:       "only first dash splits",
			title:      "Jay-Z - Empire State of Mind",
			wantArtist: "jay",
			wantSong:   "z - empire state of mind",
		},
		{
			name:       "no dash",
			title:      "Untitled Track [HD]",
			wantArtist: "",
			wantSong:   "untitled track",
		},
		{
			name:       "no dash no qualifier",
			title:      "Ambient Loop",
			wantArtist: "",
			wantSong:   "ambient loop",
		},
		{
			name:       "dash without spaces",
			title:      "Artist-Song",
			wantArtist: "artist",
			wantSong:   "song",
		},
		{
			name:       "qualifier only",
			title:      "Artist - [Live]",
			wantArtist: "artist",
			wantSong:   "",
		},
		{
			name:       "trailing dash",
			title:      "Artist -",
			wantArtist: "artist",
			wantSong:   "",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			artist, song, err := Parse(tt.title)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if artist != tt.wantArtist {
				t.Errorf("artist = %q, want %q", artist, tt.wantArtist)
			}
			if song != tt.wantSong {
				t.Errorf("song = %q, want %q", song, tt.wantSong)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, title := range []string{"", "   ", "\t"} {
		if _, _, err := Parse(title); !errors.Is(err, shared.ErrExtraction) {
			t.Errorf("Parse(%q) error = %v, want ErrExtraction", title, err)
		}
	}
}

// Every title with a single dash splits on it, whatever surrounds it.
func TestParse_SingleDash(t *testing.T) {
	lefts := []string{"ABBA", "Sigur Rós ", "  The Beatles  ", "MF DOOM"}
	rights := []string{" Dancing Queen", "Hoppípolla [Live]", " Let It Be [Remastered 2009] ", "Rhymes Like Dimes"}

	for _, left := range lefts {
		for _, right := range rights {
			title := left + "-" + right
			artist, song, err := Parse(title)
			if err != nil {
				t.Fatalf("Parse(%q): %v", title, err)
			}

			if want := strings.ToLower(strings.TrimRight(left, " ")); artist != want {
				t.Errorf("Parse(%q) artist = %q, want %q", title, artist, want)
			}

			wantSong := strings.ToLower(right)
			if before, _, ok := strings.Cut(right, "["); ok {
				wantSong = strings.ToLower(strings.TrimSpace(before))
			}
			if song != wantSong {
				t.Errorf("Parse(%q) song = %q, want %q", title, song, wantSong)
			}
		}
	}
}
