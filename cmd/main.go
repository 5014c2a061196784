package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/spimport/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "spimport",
		Usage:    "Import Tidal exports, CSV files and YouTube playlists into Spotify",
		Version:  "0.3.0",
		Flags:    runner.globalFlags(),
		Before:   runner.Load,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
