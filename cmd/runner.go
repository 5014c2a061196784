package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/providers"
	"github.com/desertthunder/spimport/internal/services"
	"github.com/desertthunder/spimport/internal/shared"
	"github.com/desertthunder/spimport/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultConfigPath = "config.toml"

// SpotifyClient is everything the commands need from the destination service.
type SpotifyClient interface {
	tasks.Searcher
	tasks.PlaylistAdder
	CurrentUser(ctx context.Context) (*models.User, error)
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	fixedConfig bool
	spotify     SpotifyClient
	youtube     providers.PageFetcher
	logger      *log.Logger
	output      io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A non-nil Config is used as is and never reloaded from disk.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    SpotifyClient
	YouTube    providers.PageFetcher
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	fixed := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		fixedConfig: fixed,
		spotify:     opts.Spotify,
		youtube:     opts.YouTube,
		logger:      opts.Logger,
		output:      opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, importCommand, previewCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load runs before every command: it reads the config file and environment,
// applies the log level and builds the scraping client.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if !r.fixedConfig {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.logger.Debug("loaded config", "path", r.configPath)
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}

		if err := shared.LoadEnv(r.config, cmd.StringSlice("env")...); err != nil {
			return ctx, err
		}
	}

	if r.youtube == nil {
		transport := services.NewRestyTransport(services.YouTubeHeaders(r.config.YouTube))
		r.youtube = services.NewYouTubeService(r.config.YouTube, transport)
	}
	return ctx, nil
}

// SetLogger replaces the logger used by later commands.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// spotifyClient returns the configured client, authenticating from the stored token on first use.
//
// Refreshed tokens are written back to the config file.
func (r *Runner) spotifyClient(ctx context.Context) (SpotifyClient, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return nil, fmt.Errorf("%w: set client_id and client_secret in %s", err, r.configPath)
	}
	svc.SetTokenRefreshCallback(r.saveToken)

	if err := svc.AuthenticateToken(ctx, creds.Token()); err != nil {
		return nil, err
	}

	r.spotify = svc
	return svc, nil
}

// saveToken persists a token that differs from the stored one.
func (r *Runner) saveToken(token *oauth2.Token) {
	if token.AccessToken == r.config.Credentials.Spotify.AccessToken {
		return
	}
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		r.logger.Warn("failed to update token", "error", err)
		return
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to save refreshed token", "error", err)
		return
	}
	r.logger.Debug("saved refreshed token", "path", r.configPath)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
