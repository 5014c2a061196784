package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spimport/internal/server"
	"github.com/desertthunder/spimport/internal/services"
	"github.com/desertthunder/spimport/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultLoginTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local callback server on the redirect URI, opens the browser for
// user authorization and saves the issued tokens to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return fmt.Errorf("%w: set client_id and client_secret in %s", err, r.configPath)
	}

	addr, path, err := server.CallbackAddr(creds.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	handler := server.NewOAuthHandler(svc, shared.GenerateID(), path)
	srv := server.NewCallbackServer(addr, handler, r.logger)
	if err := srv.Start(); err != nil {
		return err
	}

	authURL := svc.GetAuthURL(handler.State())
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	timeout := cmd.Duration("timeout")
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	token, err := srv.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}

	r.spotify = svc
	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)

	if user, err := svc.CurrentUser(ctx); err == nil {
		r.writePlain("✓ Logged in as %s\n", user.DisplayName)
	}
	return nil
}

// AuthStatus reports the account the stored token belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("current user", "id", user.ID)
	r.writePlainHeader("Spotify")
	r.writePlain("User:    %s\n", user.DisplayName)
	r.writePlain("ID:      %s\n", user.ID)
	if user.Country != "" {
		r.writePlain("Country: %s\n", user.Country)
	}
	return nil
}
