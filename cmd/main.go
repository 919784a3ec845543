package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vibepilot/internal/services"
	"github.com/desertthunder/vibepilot/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	shared.LoadEnv(config)

	var spotifyService services.Service
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify); err == nil {
			if token := config.Credentials.Spotify.Token(); token != nil {
				svc.Authenticate(context.Background(), token)
			}
			spotifyService = svc
		}
	}

	var completer services.Completer
	if config.Credentials.OpenAI.Configured() {
		if svc, err := services.NewOpenAIService(config.Credentials.OpenAI); err == nil {
			completer = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Spotify:   spotifyService,
		Completer: completer,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "vibepilot",
		Usage:    "Sort Spotify liked songs into vibe playlists",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
