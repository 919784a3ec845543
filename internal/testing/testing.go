// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"golang.org/x/oauth2"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
)

// MockService is a configurable test double for [services.Service].
//
// Zero value behaves like an empty, healthy account; set the function fields
// to override individual calls.
type MockService struct {
	Tracks    []models.Track
	Playlists map[string]*models.Playlist // keyed by name
	Added     map[string][]string         // playlist ID -> appended track IDs

	LikedTracksFn    func(ctx context.Context, max int) ([]models.Track, error)
	FindPlaylistFn   func(ctx context.Context, name string) (*models.Playlist, error)
	CreatePlaylistFn func(ctx context.Context, name, description string, public bool) (*models.Playlist, error)
	TrackIDsFn       func(ctx context.Context, playlistID string) ([]string, error)
	AddTracksFn      func(ctx context.Context, playlistID string, trackIDs []string) error
}

func (m *MockService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	return nil
}

func (m *MockService) LikedTracks(ctx context.Context, max int) ([]models.Track, error) {
	if m.LikedTracksFn != nil {
		return m.LikedTracksFn(ctx, max)
	}
	if max > 0 && len(m.Tracks) > max {
		return m.Tracks[:max], nil
	}
	return m.Tracks, nil
}

func (m *MockService) FindPlaylistByName(ctx context.Context, name string) (*models.Playlist, error) {
	if m.FindPlaylistFn != nil {
		return m.FindPlaylistFn(ctx, name)
	}
	if pl, ok := m.Playlists[name]; ok {
		return pl, nil
	}
	return nil, fmt.Errorf("%w: no playlist named %q", shared.ErrPlaylistNotFound, name)
}

func (m *MockService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if m.CreatePlaylistFn != nil {
		return m.CreatePlaylistFn(ctx, name, description, public)
	}
	pl := &models.Playlist{
		ID:          "pl_" + name,
		Name:        name,
		Description: description,
		Public:      public,
	}
	if m.Playlists == nil {
		m.Playlists = map[string]*models.Playlist{}
	}
	m.Playlists[name] = pl
	return pl, nil
}

func (m *MockService) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	if m.TrackIDsFn != nil {
		return m.TrackIDsFn(ctx, playlistID)
	}
	return m.Added[playlistID], nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.AddTracksFn != nil {
		return m.AddTracksFn(ctx, playlistID, trackIDs)
	}
	if m.Added == nil {
		m.Added = map[string][]string{}
	}
	m.Added[playlistID] = append(m.Added[playlistID], trackIDs...)
	return nil
}

func (m *MockService) Name() string { return "mock" }

// MockCompleter is a test double for [services.Completer].
type MockCompleter struct {
	Response string
	Err      error
	Calls    int
}

func (m *MockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.Calls++
	return m.Response, m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
