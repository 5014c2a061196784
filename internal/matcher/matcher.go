// Package matcher picks at most one search candidate per query.
//
// A candidate matches when one of its artist names, lowercased, equals the query's
// artist key. The first match in search order wins; there is no fuzzy matching.
package matcher

import (
	"strings"

	"github.com/desertthunder/spimport/internal/models"
)

// Reasons attached to unmatched results.
const (
	ReasonNoCandidates = "search returned no candidates"
	ReasonNoArtist     = "no candidate with matching artist"
	ReasonEmptyArtist  = "query has no artist to match"
)

// Select returns the first candidate whose artists contain artistKey.
func Select(artistKey string, candidates []models.SearchCandidate) models.MatchResult {
	if artistKey == "" {
		return models.Unmatched(ReasonEmptyArtist)
	}
	if len(candidates) == 0 {
		return models.Unmatched(ReasonNoCandidates)
	}

	for _, c := range candidates {
		if c.URI != "" && hasArtist(c, artistKey) {
			return models.Matched(c.URI)
		}
	}
	return models.Unmatched(ReasonNoArtist)
}

func hasArtist(c models.SearchCandidate, artistKey string) bool {
	for _, name := range c.ArtistNames {
		if strings.ToLower(name) == artistKey {
			return true
		}
	}
	return false
}
