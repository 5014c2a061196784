// Package models defines the in-memory data passed between the import stages.
//
// The types fall into three groups:
//
// 1. Source data produced by providers:
//   - [TrackDescriptor] : an (artist, title) pair read from a file, export or scraped page
//   - [Query] : a lowercased match key plus the sanitized text sent to search
//
// 2. Search data returned by the destination service:
//   - [SearchCandidate] : one search hit with its artist names and URI
//   - [MatchResult] : the outcome of picking a candidate for a query
//
// 3. Destination metadata:
//   - [Playlist] : basic playlist metadata
//   - [User] : the authenticated account
//
// Nothing in this package is persisted; values live for the duration of one import run.
package models
