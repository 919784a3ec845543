package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
)

// RunStore adapts the repositories to the run engine's persistence needs.
//
// It implements tasks.Store over the playlist cache, assignment history, and
// run history tables sharing one database connection.
type RunStore struct {
	playlists   *PlaylistRepository
	assignments *AssignmentRepository
	runs        *RunRepository
	logger      *log.Logger
}

// NewRunStore creates a RunStore backed by the given database connection.
func NewRunStore(db *sql.DB, logger *log.Logger) *RunStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &RunStore{
		playlists:   NewPlaylistRepository(db),
		assignments: NewAssignmentRepository(db),
		runs:        NewRunRepository(db),
		logger:      logger,
	}
}

// Playlists exposes the underlying playlist repository.
func (s *RunStore) Playlists() *PlaylistRepository { return s.playlists }

// Assignments exposes the underlying assignment repository.
func (s *RunStore) Assignments() *AssignmentRepository { return s.assignments }

// Runs exposes the underlying run repository.
func (s *RunStore) Runs() *RunRepository { return s.runs }

// LookupPlaylist returns the cached Spotify playlist ID for a playlist name.
func (s *RunStore) LookupPlaylist(name string) (string, bool) {
	playlist, err := s.playlists.GetByName(name)
	if err != nil {
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			s.logger.Warnf("playlist cache lookup failed for %q: %v", name, err)
		}
		return "", false
	}
	return playlist.ServiceID(), true
}

// SavePlaylist caches a playlist after lookup or creation. Updates the
// existing row when the playlist is already cached.
func (s *RunStore) SavePlaylist(playlist models.Playlist) error {
	existing, err := s.playlists.GetByServiceID(playlist.ID)
	if err == nil {
		existing.SetPlaylist(playlist)
		return s.playlists.Update(existing)
	}
	if !errors.Is(err, shared.ErrPlaylistNotFound) {
		return fmt.Errorf("failed to check playlist cache: %w", err)
	}

	return s.playlists.Create(models.NewPersistedPlaylist(0, playlist))
}

// HasAssignment reports whether a track was added to a playlist in any
// previous run.
func (s *RunStore) HasAssignment(trackID, playlistID string) (bool, error) {
	return s.assignments.HasTrackInPlaylist(trackID, playlistID)
}

// SaveAssignment appends one assignment to the history.
func (s *RunStore) SaveAssignment(runID string, assignment models.Assignment) error {
	return s.assignments.Create(models.NewPersistedAssignment(0, runID, assignment))
}

// SaveRun records a completed run and the path of its log file.
func (s *RunStore) SaveRun(rl models.RunLog, logPath string) error {
	return s.runs.Create(models.NewPersistedRun(0, rl, logPath))
}
