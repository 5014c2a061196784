package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/desertthunder/spimport/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config file from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret\n")
	r.writePlain("2. Run 'spimport auth login'\n")
	return nil
}

// SetupYouTube stores browser headers lifted from a "Copy as cURL" command.
//
// The headers are replayed on every playlist page request.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	headers := curlHeaders.Forwarded()
	if len(headers) == 0 {
		return fmt.Errorf("%w: no YouTube headers found in cURL command", shared.ErrInvalidInput)
	}

	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from defaults", "path", r.configPath)
	}

	r.config.YouTube.Headers = headers
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	r.writePlain("✓ Saved %d %s to %s\n", len(headers), shared.Plural(len(headers), "header"), r.configPath)
	for _, name := range names {
		r.writePlain("  %s\n", name)
	}
	return nil
}
