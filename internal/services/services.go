// package services defines interfaces for the external APIs VibePilot consumes
//
// Spotify (library + playlists) and an OpenAI-style completion endpoint
package services

import (
	"context"

	"github.com/desertthunder/vibepilot/internal/models"
	"golang.org/x/oauth2"
)

// Library reads the authenticated user's saved tracks.
type Library interface {
	// LikedTracks fetches up to max saved tracks in library order,
	// enriched with audio features and artist genres where available.
	LikedTracks(ctx context.Context, max int) ([]models.Track, error)
}

// PlaylistWriter manages playlists owned by the authenticated user.
type PlaylistWriter interface {
	// FindPlaylistByName looks up a playlist by exact name match.
	// Returns an error wrapping shared.ErrPlaylistNotFound when absent.
	FindPlaylistByName(ctx context.Context, name string) (*models.Playlist, error)

	// CreatePlaylist creates a new playlist on the user's account.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// PlaylistTrackIDs returns the IDs of all tracks currently in a playlist.
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)

	// AddTracks appends tracks to a playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error
}

// Service is the full music-service surface used by the run engine and CLI.
type Service interface {
	Library
	PlaylistWriter

	// Authenticate installs a previously obtained token on the client.
	Authenticate(ctx context.Context, token *oauth2.Token) error

	// Name returns the name of the service (e.g. "Spotify")
	Name() string
}

// OAuthService is implemented by services that support the authorization-code flow.
type OAuthService interface {
	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 config for the callback handler.
	GetOAuthConfig() *oauth2.Config
}

// Completer is a single-turn text completion provider.
type Completer interface {
	// Complete sends one system+user message pair and returns the model's text.
	Complete(ctx context.Context, system, user string) (string, error)
}
