package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/shared"
	tu "github.com/desertthunder/spimport/internal/testing"
	"github.com/urfave/cli/v3"
)

const sampleCSV = "artist,track\nDaft Punk,One More Time\nNobody,Nothing\n"

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "spimport",
		Flags:     r.globalFlags(),
		Before:    r.Load,
		Commands:  r.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
}

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "tracks.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return path
}

func newSpotify() *tu.MockSpotify {
	return &tu.MockSpotify{
		MockSearcher: tu.MockSearcher{
			Results: map[string][]models.SearchCandidate{
				"daft punk one more time": {
					{ID: "1", Name: "One More Time", ArtistNames: []string{"Daft Punk"}, URI: "spotify:track:1"},
				},
			},
		},
		User:     &models.User{ID: "u1", DisplayName: "Tester", Country: "FR"},
		Playlist: &models.Playlist{ID: "pl", Name: "Imported", TrackCount: 0},
	}
}

func newTestRunner(spotify SpotifyClient) (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config:  shared.DefaultConfig(),
		Spotify: spotify,
		Logger:  log.New(io.Discard),
		Output:  out,
	})
	return r, out
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			spotify := newSpotify()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Spotify:    spotify,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if !runner.fixedConfig {
				t.Error("expected provided config to be fixed")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
		})

		t.Run("defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.fixedConfig {
				t.Error("expected default config to be reloadable")
			}
			if runner.configPath != defaultConfigPath {
				t.Errorf("expected %s, got %s", defaultConfigPath, runner.configPath)
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("Load", func(t *testing.T) {
		t.Run("reads config file and environment", func(t *testing.T) {
			dir := t.TempDir()
			tu.MustChdir(t, dir)

			config := shared.DefaultConfig()
			config.Import.Concurrency = 7
			if err := shared.SaveConfig("custom.toml", config); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}
			t.Setenv("SPOTIFY_CLIENT_ID", "from-env")

			runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: io.Discard})
			app := newApp(runner)
			args := []string{"spimport", "--config", "custom.toml", "preview", "-x", "csv", "-f", writeCSV(t, dir)}
			if err := app.Run(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if runner.config.Import.Concurrency != 7 {
				t.Errorf("expected concurrency 7, got %d", runner.config.Import.Concurrency)
			}
			if runner.config.Credentials.Spotify.ClientID != "from-env" {
				t.Errorf("expected client id from env, got %q", runner.config.Credentials.Spotify.ClientID)
			}
			if runner.youtube == nil {
				t.Error("expected youtube fetcher to be built")
			}
		})

		t.Run("debug flag", func(t *testing.T) {
			logger := log.New(io.Discard)
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Logger: logger, Output: io.Discard})
			app := newApp(runner)
			args := []string{"spimport", "--debug", "preview", "-x", "csv", "-f", writeCSV(t, t.TempDir())}
			if err := app.Run(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger.GetLevel() != log.DebugLevel {
				t.Errorf("expected debug level, got %v", logger.GetLevel())
			}
		})
	})
}

func TestPreview(t *testing.T) {
	t.Run("text lists queries", func(t *testing.T) {
		runner, out := newTestRunner(nil)
		args := []string{"spimport", "preview", "-x", "csv", "-f", writeCSV(t, t.TempDir())}
		if err := newApp(runner).Run(context.Background(), args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := out.String()
		for _, want := range []string{"1. daft punk one more time\t(daft punk)", "2. nobody nothing\t(nobody)"} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in output, got %q", want, got)
			}
		}
	})

	t.Run("json report", func(t *testing.T) {
		runner, out := newTestRunner(nil)
		args := []string{"spimport", "preview", "-x", "raw", "-f", writeCSV(t, t.TempDir()), "--format", "json"}
		if err := newApp(runner).Run(context.Background(), args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), `"search_text": "daft punk one more time"`) {
			t.Errorf("expected json entries, got %q", out.String())
		}
	})

	t.Run("unknown platform", func(t *testing.T) {
		runner, _ := newTestRunner(nil)
		args := []string{"spimport", "preview", "-x", "deezer", "-f", "x.csv"}
		err := newApp(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		runner, _ := newTestRunner(nil)
		args := []string{"spimport", "preview", "-x", "csv", "-f", filepath.Join(t.TempDir(), "missing.csv")}
		err := newApp(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})
}

func TestImport(t *testing.T) {
	t.Run("dry run searches without adding", func(t *testing.T) {
		spotify := newSpotify()
		runner, out := newTestRunner(spotify)
		args := []string{"spimport", "import", "-x", "csv", "-f", writeCSV(t, t.TempDir()), "--dry-run"}
		if err := newApp(runner).Run(context.Background(), args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := out.String()
		if !strings.Contains(got, "Dry Run Complete") {
			t.Errorf("expected dry run summary, got %q", got)
		}
		if !strings.Contains(got, "Matched: 1/2") {
			t.Errorf("expected 1/2 matched, got %q", got)
		}
		if len(spotify.Calls()) != 2 {
			t.Errorf("expected 2 searches, got %d", len(spotify.Calls()))
		}
		if len(spotify.Batches()) != 0 {
			t.Errorf("expected no batches, got %d", len(spotify.Batches()))
		}
	})

	t.Run("adds matches and writes report", func(t *testing.T) {
		dir := t.TempDir()
		spotify := newSpotify()
		runner, out := newTestRunner(spotify)
		report := filepath.Join(dir, "reports", "run.csv")
		metricsFile := filepath.Join(dir, "spimport.prom")
		args := []string{"spimport", "import", "-x", "csv", "-f", writeCSV(t, dir), "-p", "pl", "--report", report, "--metrics-file", metricsFile}
		if err := newApp(runner).Run(context.Background(), args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		batches := spotify.Batches()
		if len(batches) != 1 || len(batches[0]) != 1 || batches[0][0] != "spotify:track:1" {
			t.Errorf("expected one batch with spotify:track:1, got %v", batches)
		}
		if !strings.Contains(out.String(), "Added: 1 track") {
			t.Errorf("expected added count, got %q", out.String())
		}

		tu.AssertFileExists(t, report)
		tu.AssertFileExists(t, metricsFile)
		content := tu.MustReadFile(t, report)
		if !strings.HasPrefix(content, "Status,Artist,Query,URI,Reason") {
			t.Errorf("expected csv report, got %q", content)
		}
		if !strings.Contains(content, "unmatched,nobody,nobody nothing") {
			t.Errorf("expected unmatched row, got %q", content)
		}
	})

	t.Run("requires playlist unless dry run", func(t *testing.T) {
		runner, _ := newTestRunner(newSpotify())
		args := []string{"spimport", "import", "-x", "csv", "-f", writeCSV(t, t.TempDir())}
		err := newApp(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("invalid submit mode", func(t *testing.T) {
		runner, _ := newTestRunner(newSpotify())
		args := []string{"spimport", "import", "-x", "csv", "-f", writeCSV(t, t.TempDir()), "-p", "pl", "--submit-mode", "random"}
		err := newApp(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("account lookup failure aborts", func(t *testing.T) {
		spotify := newSpotify()
		spotify.Err = shared.ErrTokenExpired
		runner, _ := newTestRunner(spotify)
		args := []string{"spimport", "import", "-x", "csv", "-f", writeCSV(t, t.TempDir()), "-p", "pl"}
		err := newApp(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if len(spotify.Calls()) != 0 {
			t.Error("expected no searches")
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = ""
		runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard), Output: io.Discard})
		args := []string{"spimport", "import", "-x", "csv", "-f", writeCSV(t, t.TempDir()), "--dry-run"}
		err := newApp(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("stored token required", func(t *testing.T) {
		config := shared.DefaultConfig()
		runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard), Output: io.Discard})
		args := []string{"spimport", "import", "-x", "csv", "-f", writeCSV(t, t.TempDir()), "--dry-run"}
		err := newApp(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestAuthStatus(t *testing.T) {
	runner, out := newTestRunner(newSpotify())
	if err := newApp(runner).Run(context.Background(), []string{"spimport", "auth", "status"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"User:    Tester", "ID:      u1", "Country: FR"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output, got %q", want, out.String())
		}
	}
}

func TestAuthLogin(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientSecret = ""
		runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard), Output: io.Discard})
		err := newApp(runner).Run(context.Background(), []string{"spimport", "auth", "login", "--no-browser"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("times out without callback", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.RedirectURI = "http://127.0.0.1:0/callback"
		runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard), Output: io.Discard})
		args := []string{"spimport", "auth", "login", "--no-browser", "--timeout", "50ms"}
		err := newApp(runner).Run(context.Background(), args)
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		tu.MustChdir(t, t.TempDir())
		runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: io.Discard})

		if err := newApp(runner).Run(context.Background(), []string{"spimport", "setup", "config"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, defaultConfigPath)

		if err := newApp(runner).Run(context.Background(), []string{"spimport", "setup", "config"}); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("youtube headers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: io.Discard})
		curl := `curl 'https://www.youtube.com/youtubei/v1/browse' -H 'x-goog-visitor-id: abc' -H 'accept: */*' -b 'PREF=1'`

		args := []string{"spimport", "--config", path, "setup", "youtube", "--curl", curl}
		if err := newApp(runner).Run(context.Background(), args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if config.YouTube.Headers["x-goog-visitor-id"] != "abc" {
			t.Errorf("expected visitor id header, got %v", config.YouTube.Headers)
		}
		if config.YouTube.Headers["cookie"] != "PREF=1" {
			t.Errorf("expected cookie, got %v", config.YouTube.Headers)
		}
		if _, ok := config.YouTube.Headers["accept"]; ok {
			t.Error("expected accept header to be dropped")
		}
	})

	t.Run("youtube requires input", func(t *testing.T) {
		runner, _ := newTestRunner(nil)
		err := newApp(runner).Run(context.Background(), []string{"spimport", "setup", "youtube"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
