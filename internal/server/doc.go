// Package server runs the local HTTP server that completes the Spotify OAuth2 login.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation matches routes with gorilla/mux.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens
// through an [Exchanger], and sends the result through a channel.
// It only processes one callback to prevent replay attacks.
//
// # Callback Server
//
// When the user runs auth login, a [CallbackServer] starts on the host and port of the configured redirect URI,
// waits for the callback, and shuts down after receiving the token.
package server
