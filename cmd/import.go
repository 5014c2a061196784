package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/formatter"
	"github.com/desertthunder/spimport/internal/metrics"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/providers"
	"github.com/desertthunder/spimport/internal/shared"
	"github.com/desertthunder/spimport/internal/tasks"
	"github.com/desertthunder/spimport/internal/ui"
	"github.com/urfave/cli/v3"
)

// Import reads the selected source, searches Spotify for every entry and adds the matches to the target playlist.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	opts, err := r.engineOpts(cmd)
	if err != nil {
		return err
	}

	playlistID := cmd.String("playlist")
	if playlistID == "" && !opts.DryRun {
		return fmt.Errorf("%w: --playlist is required unless --dry-run is set", shared.ErrMissingArgument)
	}

	if cmd.Bool("tui") {
		fileLogger, err := shared.NewFileLogger("./tmp/spimport-tui.log")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		if cmd.Bool("debug") {
			shared.SetLogLevel(fileLogger, log.DebugLevel)
		}
		r.SetLogger(fileLogger)
	}

	provider, err := r.provider(cmd)
	if err != nil {
		return err
	}

	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("authenticated", "user", user.DisplayName, "id", user.ID)

	var playlist *models.Playlist
	if playlistID != "" {
		if playlist, err = client.GetPlaylist(ctx, playlistID); err != nil {
			return err
		}
	}

	engine := tasks.NewImportEngine(client, client, opts, r.logger)

	var result *tasks.ImportResult
	if cmd.Bool("tui") {
		target := importTarget(provider, playlist, user, opts.DryRun)
		result, err = r.runTUI(ctx, target, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.ImportResult, error) {
			return engine.Run(ctx, progress, provider, playlistID)
		})
		if result == nil && errors.Is(err, context.Canceled) {
			return r.writePlain("Import cancelled\n")
		}
	} else {
		if playlist != nil {
			r.writePlain("Importing %s into %s (%d tracks)\n\n", provider.Name(), playlist.Name, playlist.TrackCount)
		}
		result, err = r.runPlain(ctx, engine, provider, playlistID)
	}

	if result != nil {
		if !cmd.Bool("tui") {
			r.printSummary(result)
		}
		if reportErr := r.writeReport(cmd, result); reportErr != nil {
			r.logger.Error("failed to write report", "error", reportErr)
		}
	}
	if path := cmd.String("metrics-file"); path != "" {
		if metricsErr := metrics.WriteTextfile(path); metricsErr != nil {
			r.logger.Error("failed to write metrics", "error", metricsErr)
		} else {
			r.logger.Debug("metrics written", "path", path)
		}
	}
	return err
}

// Preview reads the selected source and prints the queries it yields.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.provider(cmd)
	if err != nil {
		return err
	}

	engine := tasks.NewImportEngine(nil, nil, tasks.EngineOpts{}, r.logger)
	result, err := engine.Preview(ctx, nil, provider)
	if err != nil {
		return err
	}

	report := formatter.NewReport(result)
	format := cmd.String("format")
	if format != formatter.FormatText {
		return formatter.Fprint(r.output, report, format)
	}

	if _, err := r.output.Write(formatter.QueriesToText(report)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if n := len(result.Extraction); n > 0 {
		r.writePlainln("Skipped %d %s:", n, shared.Plural(n, "entry"))
		for _, f := range result.Extraction {
			r.writePlain("  - item %d %q: %s\n", f.Index, f.Raw, f.Reason)
		}
	}
	return nil
}

// provider builds the source selected by --platform.
func (r *Runner) provider(cmd *cli.Command) (providers.Provider, error) {
	return providers.Select(cmd.String("platform"), providers.Options{
		File:       cmd.String("file"),
		PlaylistID: cmd.String("youtube-playlist"),
		Fetcher:    r.youtube,
		Logger:     r.logger,
	})
}

// engineOpts layers command flags over the [import] config section.
func (r *Runner) engineOpts(cmd *cli.Command) (tasks.EngineOpts, error) {
	cfg := r.config.Import
	if cmd.IsSet("concurrency") {
		cfg.Concurrency = int(cmd.Int("concurrency"))
	}
	if cmd.IsSet("submit-mode") {
		cfg.SubmitMode = cmd.String("submit-mode")
	}

	opts, err := tasks.OptsFromConfig(cfg)
	if err != nil {
		return opts, err
	}
	opts.DryRun = cmd.Bool("dry-run")
	return opts, nil
}

// runPlain runs the engine while printing progress lines.
func (r *Runner) runPlain(ctx context.Context, engine *tasks.ImportEngine, provider providers.Provider, playlistID string) (*tasks.ImportResult, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printUpdate(update)
		}
	}()

	result, err := engine.Run(ctx, progressCh, provider, playlistID)
	close(progressCh)
	<-done
	return result, err
}

func (r *Runner) printUpdate(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.GatherSource, tasks.BuildQueries:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.SearchTracks:
		if update.Step == 0 {
			r.writePlain("\n🔍 %s\n", update.Message)
		} else {
			r.writePlain("   %s\n", update.Message)
		}
	case tasks.SubmitBatches:
		if update.Step == 0 {
			r.writePlain("\n📝 %s\n", update.Message)
		} else {
			r.writePlain("   %s\n", update.Message)
		}
	}
}

func (r *Runner) printSummary(result *tasks.ImportResult) {
	r.writePlain("\n")
	if result.DryRun {
		r.writePlainHeader("Dry Run Complete")
	} else {
		r.writePlainHeader("Import Complete")
	}
	r.writePlain("Source: %s\n", result.Source)
	if result.PlaylistID != "" {
		r.writePlain("Playlist: %s\n", result.PlaylistID)
	}
	r.writePlain("Matched: %d/%d\n", result.Matched, len(result.Queries))
	if !result.DryRun {
		r.writePlain("Added: %d %s\n", result.Submitted, shared.Plural(result.Submitted, "track"))
	}
	if result.SubmitFailed > 0 {
		r.writePlain("Failed to add: %d %s\n", result.SubmitFailed, shared.Plural(result.SubmitFailed, "track"))
	}

	missing := result.Unmatched + result.SearchFailed
	if missing > 0 {
		r.writePlain("\nCould not find %d %s:\n", missing, shared.Plural(missing, "track"))
		for _, q := range result.Queries {
			err := q.Problem()
			switch {
			case err == nil, errors.Is(err, shared.ErrNotSearched):
			case q.Err != nil:
				r.writePlain("  ! %s: %v\n", q.Query.SearchText, err)
			default:
				r.writePlain("  - %s: %s\n", q.Query.SearchText, q.Match.Reason)
			}
		}
	}
	if n := result.NotSearched; n > 0 {
		r.writePlain("\nNot searched: %d %s\n", n, shared.Plural(n, "track"))
	}
	if n := result.ExtractionFailed; n > 0 {
		r.writePlain("\nSkipped %d source %s\n", n, shared.Plural(n, "entry"))
	}
}

// writeReport writes the run report when --report or --report-format is set.
func (r *Runner) writeReport(cmd *cli.Command, result *tasks.ImportResult) error {
	path := cmd.String("report")
	format := cmd.String("report-format")
	if path == "" && format == "" {
		return nil
	}
	if format == "" && filepath.Ext(path) == "" {
		format = r.config.Import.ReportFormat
	}

	written, err := formatter.WriteReport(result, format, path)
	if err != nil {
		return err
	}
	r.logger.Info("report written", "path", written)
	return r.writePlain("Report written to %s\n", written)
}

func importTarget(provider providers.Provider, playlist *models.Playlist, user *models.User, dryRun bool) ui.Target {
	return ui.Target{Source: provider.Name(), Playlist: playlist, User: user, DryRun: dryRun}
}
