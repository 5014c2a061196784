// Package services implements the HTTP clients the importer talks to.
//
// # Transport
//
// [Transport] is the raw-text HTTP seam. [RestyTransport] implements it on top of
// resty and maps transport failures and non-2xx responses to
// [shared.ErrSourceUnavailable].
//
// # YouTube
//
// [YouTubeService] fetches public playlist pages. The first page is the playlist
// HTML with an embedded ytInitialData document; every later page is an innertube
// browse request carrying the continuation token found in the last item of the
// previous page. Each call makes exactly one request and returns a [Page].
//
// Documents are read through [docpath] so a page whose shape changed surfaces as
// [ErrMalformedDocument] rather than a panic.
//
// # Spotify
//
// [SpotifyService] uses OAuth2 with automatic token refresh and exposes the two
// operations an import needs, [SpotifyService.SearchTracks] and [SpotifyService.AddTracks],
// plus the current user and playlist lookups used before a run.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token rejected, reauthorization needed
//   - [shared.ErrAPIRequest] : Spotify request failed
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//   - [shared.ErrSourceUnavailable] : scraping request failed
//   - [shared.ErrSourceMalformed] : scraped document missing a mandatory path
package services
