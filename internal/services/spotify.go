// Spotify Web API client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/shared"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

// SpotifySearchResponse is the body of GET /search?type=track.
type SpotifySearchResponse struct {
	Tracks struct {
		Items  []SpotifyTrack `json:"items"`
		Total  int            `json:"total"`
		Limit  int            `json:"limit"`
		Offset int            `json:"offset"`
	} `json:"tracks"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
	URI         string         `json:"uri"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService talks to the Spotify Web API.
// Uses [oauth2] for authentication and resty for requests.
type SpotifyService struct {
	config         *oauth2.Config
	source         oauth2.TokenSource
	client         *resty.Client
	baseURL        string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{config: config, baseURL: spotifyBaseURL}, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetBaseURL points the client at another API root, e.g. a test server.
func (s *SpotifyService) SetBaseURL(baseURL string) {
	s.baseURL = strings.TrimRight(baseURL, "/")
	if s.client != nil {
		s.client.SetBaseURL(s.baseURL)
	}
}

// SetTokenRefreshCallback registers fn to be called whenever a new token is issued.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and authenticates with it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}
	s.UseTokenSource(ctx, s.config.TokenSource(ctx, token))
	return token, nil
}

// Authenticate sets up the client from stored credentials.
// Expects either an "access_token" (with optional "refresh_token") or an "auth_code".
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" {
		token := &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		}
		s.UseTokenSource(ctx, s.config.TokenSource(ctx, token))
		return nil
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		_, err := s.Exchange(ctx, authCode)
		return err
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// AuthenticateToken sets up the client from a stored token, refreshing it when expired.
func (s *SpotifyService) AuthenticateToken(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: no stored token, run auth login", shared.ErrNotAuthenticated)
	}
	s.UseTokenSource(ctx, s.config.TokenSource(ctx, token))
	return nil
}

// UseTokenSource authenticates every later request with tokens from source.
func (s *SpotifyService) UseTokenSource(ctx context.Context, source oauth2.TokenSource) {
	s.source = &refreshableTokenSource{source: source, callback: s.onTokenRefresh}
	httpClient := oauth2.NewClient(ctx, s.source)
	s.client = resty.NewWithClient(httpClient).
		SetBaseURL(s.baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")
}

// Token returns the current token, refreshing it if needed.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.source == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.source.Token()
}

func (s *SpotifyService) request(ctx context.Context) (*resty.Request, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return s.client.R().SetContext(ctx).SetError(&spotifyError{}), nil
}

// check maps transport failures and error statuses to shared sentinels.
func (s *SpotifyService) check(resp *resty.Response, err error, endpoint string) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, endpoint, err)
	}
	if !resp.IsError() {
		return nil
	}

	message := resp.Status()
	if apiErr, ok := resp.Error().(*spotifyError); ok && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s: %s", shared.ErrPlaylistNotFound, endpoint, message)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s: %s", shared.ErrServiceUnavailable, endpoint, message)
	default:
		return fmt.Errorf("%w: %s: status %d: %s", shared.ErrAPIRequest, endpoint, resp.StatusCode(), message)
	}
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	req, err := s.request(ctx)
	if err != nil {
		return nil, err
	}

	var user SpotifyUser
	resp, err := req.SetResult(&user).Get("/me")
	if err := s.check(resp, err, "/me"); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the authenticated user as a model.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}
	return &models.User{ID: user.ID, DisplayName: user.DisplayName, Country: user.Country}, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	req, err := s.request(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := "/playlists/" + playlistID
	var playlist SpotifyPlaylist
	resp, err := req.
		SetPathParam("id", playlistID).
		SetQueryParam("fields", "id,name,description,public,uri,tracks.total").
		SetResult(&playlist).
		Get("/playlists/{id}")
	if err := s.check(resp, err, endpoint); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// GetPlaylist retrieves a playlist by ID as a model.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}, nil
}

// SearchTracks runs a track search and returns candidates in Spotify's order.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit, offset int) ([]models.SearchCandidate, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	req, err := s.request(ctx)
	if err != nil {
		return nil, err
	}

	var result SpotifySearchResponse
	resp, err := req.
		SetQueryParams(map[string]string{
			"q":      query,
			"type":   "track",
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		}).
		SetResult(&result).
		Get("/search")
	if err := s.check(resp, err, "/search"); err != nil {
		return nil, err
	}

	candidates := make([]models.SearchCandidate, 0, len(result.Tracks.Items))
	for _, track := range result.Tracks.Items {
		names := make([]string, len(track.Artists))
		for i, artist := range track.Artists {
			names[i] = artist.Name
		}
		candidates = append(candidates, models.SearchCandidate{
			ID:          track.ID,
			Name:        track.Name,
			ArtistNames: names,
			URI:         track.URI,
		})
	}
	return candidates, nil
}

// AddTracks appends up to [shared.MaxBatchSize] track URIs to a playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > shared.MaxBatchSize {
		return fmt.Errorf("%w: %d URIs exceeds the limit of %d", shared.ErrInvalidArgument, len(uris), shared.MaxBatchSize)
	}

	req, err := s.request(ctx)
	if err != nil {
		return err
	}

	endpoint := "/playlists/" + playlistID + "/tracks"
	resp, err := req.
		SetPathParam("id", playlistID).
		SetBody(addTracksRequest{URIs: uris}).
		Post("/playlists/{id}/tracks")
	return s.check(resp, err, endpoint)
}

// refreshableTokenSource reports every newly issued token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}
