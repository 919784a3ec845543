// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// Spotify caps page sizes at 50 for library endpoints and batch sizes at
// 100 (audio features, playlist adds) and 50 (artists).
const (
	savedTracksPageSize  = 50
	artistBatchSize      = 50
	featuresBatchSize    = 100
	playlistAddBatchSize = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	URI    string   `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifyAudioFeatures represents the audio analysis summary for one track.
type SpotifyAudioFeatures struct {
	ID           string  `json:"id"`
	Valence      float64 `json:"valence"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Acousticness float64 `json:"acousticness"`
	Tempo        float64 `json:"tempo"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	URI         string              `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

type playlistItemTrack struct {
	Track struct {
		ID string `json:"id"`
	} `json:"track"`
}

type paginatedPlaylistItems struct {
	Items []playlistItemTrack `json:"items"`
	Next  *string             `json:"next"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and a [rate.Limiter] to stay under API limits.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	limiter    *rate.Limiter
	userID     string
}

// NewSpotifyService creates a new Spotify service with the given credentials.
func NewSpotifyService(creds shared.SpotifyConfig) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing Spotify client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing Spotify client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-library-read",
			"playlist-read-private",
			"playlist-modify-private",
			"playlist-modify-public",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
	}, nil
}

// Authenticate installs the token on the client. The underlying [oauth2]
// transport refreshes expired tokens when a refresh token is present.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: no Spotify token available, run `vibepilot auth`", shared.ErrNotAuthenticated)
	}
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetHTTPClient overrides the HTTP client (used in tests).
func (s *SpotifyService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// doRequest performs an authenticated, rate-limited HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := spotifyBaseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: spotify returned 401", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// currentUserID returns the user's ID, fetching the profile once and caching it.
func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}
	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: profile response missing user id", shared.ErrAPIRequest)
	}
	s.userID = user.ID
	return s.userID, nil
}

// SavedTracks retrieves one page of the user's saved tracks.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 || limit > savedTracksPageSize {
		limit = savedTracksPageSize
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// SeveralArtists retrieves multiple artists by their IDs (up to 50).
func (s *SpotifyService) SeveralArtists(ctx context.Context, artistIDs []string) ([]SpotifyArtist, error) {
	if len(artistIDs) == 0 {
		return nil, fmt.Errorf("%w: no artist IDs provided", shared.ErrInvalidInput)
	}
	if len(artistIDs) > artistBatchSize {
		return nil, fmt.Errorf("%w: maximum %d artist IDs allowed", shared.ErrInvalidInput, artistBatchSize)
	}

	endpoint := fmt.Sprintf("/artists?ids=%s", url.QueryEscape(strings.Join(artistIDs, ",")))

	var response struct {
		Artists []SpotifyArtist `json:"artists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Artists, nil
}

// AudioFeaturesFor retrieves audio features for multiple tracks (up to 100).
func (s *SpotifyService) AudioFeaturesFor(ctx context.Context, trackIDs []string) ([]SpotifyAudioFeatures, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidInput)
	}
	if len(trackIDs) > featuresBatchSize {
		return nil, fmt.Errorf("%w: maximum %d track IDs allowed", shared.ErrInvalidInput, featuresBatchSize)
	}

	endpoint := fmt.Sprintf("/audio-features?ids=%s", url.QueryEscape(strings.Join(trackIDs, ",")))

	var response struct {
		AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	features := make([]SpotifyAudioFeatures, 0, len(response.AudioFeatures))
	for _, af := range response.AudioFeatures {
		// Spotify returns null entries for tracks without analysis
		if af != nil {
			features = append(features, *af)
		}
	}

	return features, nil
}

// LikedTracks fetches up to max saved tracks in library order and enriches
// them with audio features and first-artist genres.
//
// Enrichment failures are tolerated: classification falls back to keyword
// rules (or Unclassified) for tracks without features, so a dead
// audio-features endpoint never aborts a run.
func (s *SpotifyService) LikedTracks(ctx context.Context, max int) ([]models.Track, error) {
	if max <= 0 {
		max = 1000
	}

	var tracks []models.Track
	var firstArtistIDs []string // parallel to tracks, "" when unknown
	offset := 0

	for len(tracks) < max {
		limit := savedTracksPageSize
		if remaining := max - len(tracks); remaining < limit {
			limit = remaining
		}

		page, err := s.SavedTracks(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if item.Track.ID == "" {
				continue
			}
			track := models.Track{
				ID:      item.Track.ID,
				Title:   item.Track.Name,
				Album:   item.Track.Album.Name,
				AddedAt: item.AddedAt,
			}
			artistID := ""
			for i, artist := range item.Track.Artists {
				track.Artists = append(track.Artists, artist.Name)
				if i == 0 {
					artistID = artist.ID
				}
			}
			tracks = append(tracks, track)
			firstArtistIDs = append(firstArtistIDs, artistID)
		}

		offset += len(page.Items)
		if page.Next == nil {
			break
		}
	}

	s.attachFeatures(ctx, tracks)
	s.attachGenres(ctx, tracks, firstArtistIDs)

	return tracks, nil
}

// attachFeatures fills in audio features for each track, batch by batch.
func (s *SpotifyService) attachFeatures(ctx context.Context, tracks []models.Track) {
	byID := make(map[string]*models.Track, len(tracks))
	ids := make([]string, 0, len(tracks))
	for i := range tracks {
		byID[tracks[i].ID] = &tracks[i]
		ids = append(ids, tracks[i].ID)
	}

	for start := 0; start < len(ids); start += featuresBatchSize {
		end := start + featuresBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		features, err := s.AudioFeaturesFor(ctx, ids[start:end])
		if err != nil {
			continue
		}

		for _, af := range features {
			if track, ok := byID[af.ID]; ok {
				track.Features = &models.AudioFeatures{
					Valence:      af.Valence,
					Energy:       af.Energy,
					Danceability: af.Danceability,
					Acousticness: af.Acousticness,
					Tempo:        af.Tempo,
				}
			}
		}
	}
}

// attachGenres fills in genre tags from each track's first artist.
// Only the first artist is fetched per track, trading genre completeness
// for fewer API calls.
func (s *SpotifyService) attachGenres(ctx context.Context, tracks []models.Track, firstArtistIDs []string) {
	artistOf := make(map[string][]int) // artist ID -> track indexes
	var artistIDs []string

	for i := range tracks {
		if i >= len(firstArtistIDs) {
			break
		}
		id := firstArtistIDs[i]
		if id == "" {
			continue
		}
		if _, seen := artistOf[id]; !seen {
			artistIDs = append(artistIDs, id)
		}
		artistOf[id] = append(artistOf[id], i)
	}

	for start := 0; start < len(artistIDs); start += artistBatchSize {
		end := start + artistBatchSize
		if end > len(artistIDs) {
			end = len(artistIDs)
		}

		artists, err := s.SeveralArtists(ctx, artistIDs[start:end])
		if err != nil {
			continue
		}

		for _, artist := range artists {
			for _, idx := range artistOf[artist.ID] {
				tracks[idx].Genres = artist.Genres
			}
		}
	}
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// FindPlaylistByName looks up a playlist among the user's playlists by exact name.
func (s *SpotifyService) FindPlaylistByName(ctx context.Context, name string) (*models.Playlist, error) {
	offset := 0
	for {
		page, err := s.UserPlaylists(ctx, 50, offset)
		if err != nil {
			return nil, err
		}

		for _, pl := range page.Items {
			if pl.Name == name {
				return &models.Playlist{
					ID:          pl.ID,
					Name:        pl.Name,
					Description: pl.Description,
					TrackCount:  pl.Tracks.Total,
					Public:      pl.Public,
				}, nil
			}
		}

		if page.Next == nil {
			break
		}
		offset += len(page.Items)
	}

	return nil, fmt.Errorf("%w: no playlist named %q", shared.ErrPlaylistNotFound, name)
}

// CreatePlaylist creates a new playlist on the user's account.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	body := createPlaylistRequest{Name: name, Description: description, Public: public}

	var created SpotifySimplePlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: create playlist response missing id", shared.ErrAPIRequest)
	}

	return &models.Playlist{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		Public:      created.Public,
	}, nil
}

// PlaylistTrackIDs returns the IDs of all tracks currently in a playlist.
func (s *SpotifyService) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?fields=items(track(id)),next&limit=100&offset=%d",
			url.PathEscape(playlistID), offset)

		var page paginatedPlaylistItems
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.ID != "" {
				ids = append(ids, item.Track.ID)
			}
		}

		if page.Next == nil {
			break
		}
		offset += len(page.Items)
	}

	return ids, nil
}

// AddTracks appends tracks to a playlist in batches of 100.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	for start := 0; start < len(trackIDs); start += playlistAddBatchSize {
		end := start + playlistAddBatchSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		uris := make([]string, 0, end-start)
		for _, id := range trackIDs[start:end] {
			uris = append(uris, "spotify:track:"+id)
		}

		if err := s.doRequest(ctx, http.MethodPost, endpoint, addTracksRequest{URIs: uris}, nil); err != nil {
			return err
		}
	}

	return nil
}
