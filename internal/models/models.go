// package models defines the data model for the playlist importer
package models

import "fmt"

// TrackDescriptor is the normalized unit every provider emits before query building.
//
// Artist may be empty when a title heuristic could not find one. Title is never empty.
type TrackDescriptor struct {
	Artist  string   `json:"artist" yaml:"artist"`
	Title   string   `json:"title" yaml:"title"`
	Artists []string `json:"artists,omitempty" yaml:"artists,omitempty"` // Every contributing artist, when the source has them
}

// Query pairs the lowercase artist match key with the text sent to search.
type Query struct {
	ArtistKey  string `json:"artist_key" yaml:"artist_key"`
	SearchText string `json:"search_text" yaml:"search_text"`
}

func (q Query) String() string {
	return fmt.Sprintf("%s (%s)", q.SearchText, q.ArtistKey)
}

// SearchCandidate is a single track returned by the destination search endpoint.
type SearchCandidate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ArtistNames []string `json:"artist_names"`
	URI         string   `json:"uri"`
}

// MatchResult is either a matched URI or the reason nothing matched.
type MatchResult struct {
	URI    string
	Reason string
}

// Matched builds a successful [MatchResult].
func Matched(uri string) MatchResult {
	return MatchResult{URI: uri}
}

// Unmatched builds a failed [MatchResult] carrying the reason.
func Unmatched(reason string) MatchResult {
	return MatchResult{Reason: reason}
}

// Ok reports whether the result carries a URI.
func (m MatchResult) Ok() bool {
	return m.URI != ""
}

// Playlist represents a playlist on the destination service
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// User is the authenticated destination account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
}
