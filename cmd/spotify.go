package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vibepilot/internal/services"
	"github.com/desertthunder/vibepilot/internal/shared"
)

// SpotifyProfile shows the authenticated user's profile.
func (r *Runner) SpotifyProfile(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireSpotify(); err != nil {
		return err
	}

	spotify, ok := r.spotify.(*services.SpotifyService)
	if !ok {
		return fmt.Errorf("%w: profile lookup requires the Spotify client", shared.ErrServiceUnavailable)
	}

	profile, err := spotify.UserProfile(ctx)
	if err != nil {
		if reauthed, authErr := r.handleSpotifyAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if profile, err = spotify.UserProfile(ctx); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, true)
	}

	r.writePlain("Display name: %s\n", profile.DisplayName)
	r.writePlain("User ID: %s\n", profile.ID)
	if profile.Email != "" {
		r.writePlain("Email: %s\n", profile.Email)
	}
	if profile.Country != "" {
		r.writePlain("Country: %s\n", profile.Country)
	}

	return nil
}

// SpotifyLiked lists the user's liked songs.
func (r *Runner) SpotifyLiked(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.requireSpotify()
	if err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))

	r.logger.Infof("listing liked songs with limit %v", limit)

	tracks, err := spotify.LikedTracks(ctx, limit)
	if err != nil {
		if reauthed, authErr := r.handleSpotifyAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if tracks, err = spotify.LikedTracks(ctx, limit); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	r.writePlain("Found %d liked songs:\n\n", len(tracks))
	for i, track := range tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.PrimaryArtist(), track.Title)
		if track.Album != "" {
			r.writePlain("   Album: %s\n", track.Album)
		}
		if track.Features != nil {
			r.writePlain("   Valence: %.2f  Energy: %.2f  Tempo: %.0f\n",
				track.Features.Valence, track.Features.Energy, track.Features.Tempo)
		}
	}

	return nil
}
