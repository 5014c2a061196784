// Package titles splits free-text video titles into an (artist, song) pair.
//
// The heuristic assumes the common "Artist - Song [Qualifier]" layout. It is best-effort:
// titles that do not follow the layout still parse, they just yield an empty artist.
package titles

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spimport/internal/shared"
)

const (
	separator = "-"
	qualifier = "["
)

// Parse returns the lowercased artist and song for title.
//
// The artist is everything before the first "-" with trailing spaces removed; later
// dashes stay in the song. Anything from the first "[" onwards is dropped from the song.
// Only an empty or blank title is an error.
func Parse(title string) (artist, song string, err error) {
	if strings.TrimSpace(title) == "" {
		return "", "", fmt.Errorf("%w: empty title", shared.ErrExtraction)
	}

	raw := title
	if left, right, found := strings.Cut(title, separator); found {
		artist = strings.ToLower(strings.TrimRight(left, " "))
		raw = right
	}

	if before, _, found := strings.Cut(raw, qualifier); found {
		song = strings.ToLower(strings.TrimSpace(before))
	} else {
		song = strings.ToLower(raw)
	}

	return artist, song, nil
}
