package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// MaxBatchSize is the most URIs the playlist endpoint accepts per request.
const MaxBatchSize = 80

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	YouTube     YouTubeConfig     `toml:"youtube"`
	Import      ImportConfig      `toml:"import"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the last issued token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string    `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string    `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
	AccessToken  string    `toml:"access_token" env:"SPOTIFY_ACCESS_TOKEN"`
	RefreshToken string    `toml:"refresh_token" env:"SPOTIFY_REFRESH_TOKEN"`
	Expiry       time.Time `toml:"expiry,omitempty"`
}

// YouTubeConfig contains the settings used to scrape public playlist pages.
type YouTubeConfig struct {
	BaseURL       string            `toml:"base_url" env:"YOUTUBE_BASE_URL"`
	APIKey        string            `toml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientName    string            `toml:"client_name"`
	ClientVersion string            `toml:"client_version"`
	UserAgent     string            `toml:"user_agent"`
	Language      string            `toml:"language"`
	Region        string            `toml:"region"`
	Headers       map[string]string `toml:"headers"` // Extra request headers, usually captured with setup youtube
}

// ImportConfig tunes the search and submission stages.
type ImportConfig struct {
	Concurrency  int     `toml:"concurrency" env:"SPIMPORT_CONCURRENCY"`
	RateLimit    float64 `toml:"rate_limit" env:"SPIMPORT_RATE_LIMIT"`
	BatchSize    int     `toml:"batch_size"`
	SearchLimit  int     `toml:"search_limit"`
	SubmitMode   string  `toml:"submit_mode" env:"SPIMPORT_SUBMIT_MODE"`
	ReportFormat string  `toml:"report_format"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port the callback server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Map returns the credentials in the form expected by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Token returns the stored token, or nil when no access token has been saved.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.Expiry,
	}
}

// Update stores a freshly issued token.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.Expiry = token.Expiry
	return nil
}

// Validate checks values that would otherwise fail deep inside an import run.
func (c *Config) Validate() error {
	if c.Import.BatchSize <= 0 || c.Import.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch_size must be between 1 and %d", ErrInvalidConfig, MaxBatchSize)
	}
	if c.Import.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	}
	switch c.Import.SubmitMode {
	case "strict", "parallel":
	default:
		return fmt.Errorf("%w: submit_mode must be strict or parallel, got %q", ErrInvalidConfig, c.Import.SubmitMode)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads .env files (missing files are ignored) and applies environment overrides to config.
func LoadEnv(config *Config, files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
