package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/vibepilot/internal/shared"
	"golang.org/x/oauth2"
)

// roundTripFunc routes requests to canned responses without a network
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testCredentials() shared.SpotifyConfig {
	return shared.SpotifyConfig{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
	}
}

// newTestSpotify returns an authenticated service whose requests are
// answered by route, keyed on the request path.
func newTestSpotify(t *testing.T, route func(r *http.Request) *http.Response) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(testCredentials())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if err := srv.Authenticate(context.Background(), &oauth2.Token{AccessToken: "test_token"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	srv.SetHTTPClient(&http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		resp := route(r)
		if resp == nil {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			return jsonResponse(http.StatusNotFound, `{}`), nil
		}
		return resp, nil
	})})

	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv == nil {
				t.Fatal("expected service to be created")
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientSecret: "secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://localhost:8080/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("rejects missing token", func(t *testing.T) {
			if err := srv.Authenticate(context.Background(), nil); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if err := srv.Authenticate(context.Background(), &oauth2.Token{}); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("stores the token", func(t *testing.T) {
			if err := srv.Authenticate(context.Background(), &oauth2.Token{AccessToken: "abc"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.token == nil || srv.token.AccessToken != "abc" {
				t.Error("expected token to be stored")
			}
		})
	})

	t.Run("Service Interface", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ Service = srv
	})

	t.Run("requests before Authenticate fail", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := srv.UserProfile(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("401 surfaces as ErrTokenExpired", func(t *testing.T) {
		srv := newTestSpotify(t, func(r *http.Request) *http.Response {
			return jsonResponse(http.StatusUnauthorized, `{"error":{"status":401}}`)
		})

		if _, err := srv.UserProfile(context.Background()); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("server error surfaces as ErrAPIRequest", func(t *testing.T) {
		srv := newTestSpotify(t, func(r *http.Request) *http.Response {
			return jsonResponse(http.StatusInternalServerError, `{}`)
		})

		if _, err := srv.UserProfile(context.Background()); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("LikedTracks", func(t *testing.T) {
		t.Run("paginates and enriches", func(t *testing.T) {
			srv := newTestSpotify(t, func(r *http.Request) *http.Response {
				switch r.URL.Path {
				case "/v1/me/tracks":
					if r.URL.Query().Get("offset") == "0" {
						return jsonResponse(http.StatusOK, `{
							"items": [
								{"added_at": "2025-01-01T00:00:00Z", "track": {"id": "t1", "name": "One", "album": {"name": "A"}, "artists": [{"id": "a1", "name": "Artist One"}]}},
								{"added_at": "2025-01-02T00:00:00Z", "track": {"id": "t2", "name": "Two", "album": {"name": "B"}, "artists": [{"id": "a1", "name": "Artist One"}]}}
							],
							"next": "https://api.spotify.com/v1/me/tracks?offset=2"
						}`)
					}
					return jsonResponse(http.StatusOK, `{
						"items": [
							{"added_at": "2025-01-03T00:00:00Z", "track": {"id": "t3", "name": "Three", "album": {"name": "C"}, "artists": [{"id": "a2", "name": "Artist Two"}]}}
						],
						"next": null
					}`)
				case "/v1/audio-features":
					return jsonResponse(http.StatusOK, `{
						"audio_features": [
							{"id": "t1", "valence": 0.9, "energy": 0.8, "tempo": 128},
							null,
							{"id": "t3", "valence": 0.2, "energy": 0.3, "tempo": 70}
						]
					}`)
				case "/v1/artists":
					return jsonResponse(http.StatusOK, `{
						"artists": [
							{"id": "a1", "name": "Artist One", "genres": ["synthwave"]},
							{"id": "a2", "name": "Artist Two", "genres": ["emo"]}
						]
					}`)
				}
				return nil
			})

			tracks, err := srv.LikedTracks(context.Background(), 0)
			if err != nil {
				t.Fatalf("failed to fetch liked tracks: %v", err)
			}

			if len(tracks) != 3 {
				t.Fatalf("got %d tracks, want 3", len(tracks))
			}

			if tracks[0].ID != "t1" || tracks[2].ID != "t3" {
				t.Errorf("library order not preserved: %s, %s", tracks[0].ID, tracks[2].ID)
			}

			if tracks[0].Features == nil || tracks[0].Features.Valence != 0.9 {
				t.Errorf("t1 features = %+v", tracks[0].Features)
			}
			if tracks[1].Features != nil {
				t.Error("t2 has no analysis, features should be nil")
			}

			if len(tracks[0].Genres) != 1 || tracks[0].Genres[0] != "synthwave" {
				t.Errorf("t1 genres = %v", tracks[0].Genres)
			}
			if len(tracks[2].Genres) != 1 || tracks[2].Genres[0] != "emo" {
				t.Errorf("t3 genres = %v", tracks[2].Genres)
			}
		})

		t.Run("max caps the fetch", func(t *testing.T) {
			srv := newTestSpotify(t, func(r *http.Request) *http.Response {
				switch r.URL.Path {
				case "/v1/me/tracks":
					if r.URL.Query().Get("limit") != "1" {
						t.Errorf("limit = %s, want 1", r.URL.Query().Get("limit"))
					}
					return jsonResponse(http.StatusOK, `{
						"items": [{"added_at": "2025-01-01T00:00:00Z", "track": {"id": "t1", "name": "One", "artists": [{"id": "a1", "name": "X"}]}}],
						"next": "https://api.spotify.com/v1/me/tracks?offset=1"
					}`)
				case "/v1/audio-features", "/v1/artists":
					return jsonResponse(http.StatusInternalServerError, `{}`)
				}
				return nil
			})

			tracks, err := srv.LikedTracks(context.Background(), 1)
			if err != nil {
				t.Fatalf("failed to fetch liked tracks: %v", err)
			}
			if len(tracks) != 1 {
				t.Errorf("got %d tracks, want 1", len(tracks))
			}
		})

		t.Run("tolerates enrichment failures", func(t *testing.T) {
			srv := newTestSpotify(t, func(r *http.Request) *http.Response {
				switch r.URL.Path {
				case "/v1/me/tracks":
					return jsonResponse(http.StatusOK, `{
						"items": [{"added_at": "2025-01-01T00:00:00Z", "track": {"id": "t1", "name": "One", "artists": [{"id": "a1", "name": "X"}]}}],
						"next": null
					}`)
				case "/v1/audio-features", "/v1/artists":
					return jsonResponse(http.StatusForbidden, `{}`)
				}
				return nil
			})

			tracks, err := srv.LikedTracks(context.Background(), 0)
			if err != nil {
				t.Fatalf("enrichment failure should not abort the fetch: %v", err)
			}
			if len(tracks) != 1 {
				t.Fatalf("got %d tracks, want 1", len(tracks))
			}
			if tracks[0].Features != nil {
				t.Error("features should be nil when the endpoint fails")
			}
		})
	})

	t.Run("FindPlaylistByName", func(t *testing.T) {
		route := func(r *http.Request) *http.Response {
			if r.URL.Path == "/v1/me/playlists" {
				return jsonResponse(http.StatusOK, `{
					"items": [
						{"id": "pl1", "name": "Hype Gym", "description": "d", "public": false, "tracks": {"total": 12}},
						{"id": "pl2", "name": "Hype", "tracks": {"total": 3}}
					],
					"next": null
				}`)
			}
			return nil
		}

		t.Run("exact match only", func(t *testing.T) {
			srv := newTestSpotify(t, route)

			playlist, err := srv.FindPlaylistByName(context.Background(), "Hype Gym")
			if err != nil {
				t.Fatalf("lookup failed: %v", err)
			}
			if playlist.ID != "pl1" {
				t.Errorf("ID = %s, want pl1", playlist.ID)
			}
			if playlist.TrackCount != 12 {
				t.Errorf("track count = %d, want 12", playlist.TrackCount)
			}
		})

		t.Run("not found", func(t *testing.T) {
			srv := newTestSpotify(t, route)

			_, err := srv.FindPlaylistByName(context.Background(), "hype gym")
			if !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Errorf("expected ErrPlaylistNotFound, got %v", err)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		var gotBody createPlaylistRequest

		srv := newTestSpotify(t, func(r *http.Request) *http.Response {
			switch r.URL.Path {
			case "/v1/me":
				return jsonResponse(http.StatusOK, `{"id": "user1", "display_name": "Tester"}`)
			case "/v1/users/user1/playlists":
				if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
					t.Errorf("failed to decode request body: %v", err)
				}
				return jsonResponse(http.StatusCreated, `{"id": "pl_new", "name": "Night Drive", "description": "VibePilot - Night Drive", "public": true}`)
			}
			return nil
		})

		playlist, err := srv.CreatePlaylist(context.Background(), "Night Drive", "VibePilot - Night Drive", true)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if playlist.ID != "pl_new" {
			t.Errorf("ID = %s, want pl_new", playlist.ID)
		}
		if gotBody.Name != "Night Drive" || !gotBody.Public {
			t.Errorf("request body = %+v", gotBody)
		}
	})

	t.Run("PlaylistTrackIDs", func(t *testing.T) {
		srv := newTestSpotify(t, func(r *http.Request) *http.Response {
			if r.URL.Path == "/v1/playlists/pl1/tracks" {
				if r.URL.Query().Get("offset") == "0" {
					return jsonResponse(http.StatusOK, `{
						"items": [{"track": {"id": "t1"}}, {"track": {"id": "t2"}}],
						"next": "https://api.spotify.com/v1/playlists/pl1/tracks?offset=2"
					}`)
				}
				return jsonResponse(http.StatusOK, `{"items": [{"track": {"id": "t3"}}], "next": null}`)
			}
			return nil
		})

		ids, err := srv.PlaylistTrackIDs(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(ids) != 3 {
			t.Fatalf("got %d IDs, want 3", len(ids))
		}
		if ids[0] != "t1" || ids[2] != "t3" {
			t.Errorf("IDs = %v", ids)
		}
	})

	t.Run("AddTracks", func(t *testing.T) {
		t.Run("batches of 100 with track URIs", func(t *testing.T) {
			var batches [][]string

			srv := newTestSpotify(t, func(r *http.Request) *http.Response {
				if r.URL.Path == "/v1/playlists/pl1/tracks" && r.Method == http.MethodPost {
					var body addTracksRequest
					if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
						t.Errorf("failed to decode request body: %v", err)
					}
					batches = append(batches, body.URIs)
					return jsonResponse(http.StatusCreated, `{"snapshot_id": "s"}`)
				}
				return nil
			})

			trackIDs := make([]string, 150)
			for i := range trackIDs {
				trackIDs[i] = "t"
			}

			if err := srv.AddTracks(context.Background(), "pl1", trackIDs); err != nil {
				t.Fatalf("add failed: %v", err)
			}

			if len(batches) != 2 {
				t.Fatalf("got %d batches, want 2", len(batches))
			}
			if len(batches[0]) != 100 || len(batches[1]) != 50 {
				t.Errorf("batch sizes = %d, %d", len(batches[0]), len(batches[1]))
			}
			if batches[0][0] != "spotify:track:t" {
				t.Errorf("URI = %s", batches[0][0])
			}
		})

		t.Run("no-op on empty input", func(t *testing.T) {
			srv := newTestSpotify(t, func(r *http.Request) *http.Response {
				t.Errorf("unexpected request: %s", r.URL.Path)
				return nil
			})

			if err := srv.AddTracks(context.Background(), "pl1", nil); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})
}
