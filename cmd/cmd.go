// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spimport/internal/formatter"
	"github.com/desertthunder/spimport/internal/providers"
	"github.com/urfave/cli/v3"
)

// globalFlags are accepted by every command.
func (r *Runner) globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   defaultConfigPath,
		},
		&cli.StringSliceFlag{
			Name:  "env",
			Usage: "Environment files to load before reading SPOTIFY_* variables",
			Value: []string{".env"},
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

// sourceFlags select and locate the playlist source.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "platform",
			Aliases:  []string{"x"},
			Usage:    fmt.Sprintf("Source platform (%s)", strings.Join(providers.Platforms, ", ")),
			Required: true,
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Path to the Tidal export or CSV file",
		},
		&cli.StringFlag{
			Name:    "youtube-playlist",
			Aliases: []string{"y"},
			Usage:   "YouTube playlist id (the list= query parameter)",
		},
	}
}

// setupCommand handles configuration setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt"},
				Usage:   "Store browser headers used when scraping YouTube playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Spotify using OAuth2 and save the tokens",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultLoginTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the authenticated Spotify account",
				Action: r.AuthStatus,
			},
		},
	}
}

// importCommand runs a full import into a Spotify playlist.
func importCommand(r *Runner) *cli.Command {
	flags := append(sourceFlags(),
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Target Spotify playlist id",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Concurrent searches (overrides import.concurrency)",
		},
		&cli.StringFlag{
			Name:  "submit-mode",
			Usage: "Batch submission order: strict or parallel (overrides import.submit_mode)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Search and match without adding anything to the playlist",
		},
		&cli.StringFlag{
			Name:    "report",
			Aliases: []string{"o"},
			Usage:   "Write a run report to this path",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: fmt.Sprintf("Report format (%s)", strings.Join(formatter.Formats, ", ")),
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write Prometheus metrics for the run to this file",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Follow progress in an interactive terminal UI",
		},
	)

	return &cli.Command{
		Name:   "import",
		Usage:  "Import a playlist source into Spotify",
		Flags:  flags,
		Action: r.Import,
	}
}

// previewCommand prints the queries a source would produce.
func previewCommand(r *Runner) *cli.Command {
	flags := append(sourceFlags(),
		&cli.StringFlag{
			Name:  "format",
			Usage: fmt.Sprintf("Output format (%s)", strings.Join(formatter.Formats, ", ")),
			Value: formatter.FormatText,
		},
	)

	return &cli.Command{
		Name:   "preview",
		Usage:  "Read a source and print its search queries without contacting Spotify",
		Flags:  flags,
		Action: r.Preview,
	}
}
