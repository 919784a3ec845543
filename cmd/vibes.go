package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
	"github.com/desertthunder/vibepilot/internal/vibes"
)

// VibesList prints the fixed vibe categories.
func (r *Runner) VibesList(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("json") {
		return r.writeJSON(vibes.All(), true)
	}

	r.writePlain("Vibe categories:\n\n")
	for i, vibe := range vibes.Known() {
		r.writePlain("%d. %s\n", i+1, vibe)
	}
	r.writePlain("\nTracks matching no rule land in: %s\n", vibes.VibeUnclassified)
	return nil
}

// classifiedTrack pairs a track with its dry-run classification for output.
type classifiedTrack struct {
	Track  models.Track  `json:"track"`
	Vibe   models.Vibe   `json:"vibe"`
	Source models.Source `json:"source"`
}

// VibesClassify classifies liked songs without creating or touching playlists.
func (r *Runner) VibesClassify(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.requireSpotify()
	if err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	prompt := cmd.String("prompt")

	r.logger.Infof("dry-run classification of up to %v liked songs", limit)

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

	classifier := vibes.NewClassifier(r.completer, r.logger)

	results := make([]classifiedTrack, 0, len(tracks))
	counts := make(map[models.Vibe]int)
	for _, track := range tracks {
		vibe, source := classifier.Classify(ctx, track, prompt)
		results = append(results, classifiedTrack{Track: track, Vibe: vibe, Source: source})
		counts[vibe]++
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	r.writePlain("Classified %d tracks:\n\n", len(results))
	for i, result := range results {
		r.writePlain("%d. %s - %s -> %s (%s)\n", i+1, result.Track.PrimaryArtist(), result.Track.Title, result.Vibe, result.Source)
	}

	r.writePlain("\nBreakdown:\n")
	for _, vibe := range vibes.All() {
		if counts[vibe] > 0 {
			r.writePlain("  %s: %d\n", vibe, counts[vibe])
		}
	}

	return nil
}
