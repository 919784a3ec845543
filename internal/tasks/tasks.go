// package tasks implements the classification run pipeline.
//
// The core abstraction is RunEngine, which drives fetch -> classify ->
// assign -> log for one execution. Operations emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/services"
	"github.com/desertthunder/vibepilot/internal/shared"
	"github.com/desertthunder/vibepilot/internal/vibes"
)

// Store persists playlist cache rows, assignment history, and run records.
// Implemented by repositories.RunStore; a no-op implementation is valid.
type Store interface {
	// LookupPlaylist returns the cached service ID for a playlist name.
	LookupPlaylist(name string) (string, bool)

	// SavePlaylist caches a playlist after lookup or creation.
	SavePlaylist(playlist models.Playlist) error

	// HasAssignment reports whether a track was already added to a playlist
	// in any previous run.
	HasAssignment(trackID, playlistID string) (bool, error)

	// SaveAssignment appends one assignment to the history.
	SaveAssignment(runID string, assignment models.Assignment) error

	// SaveRun records a completed run and its log path.
	SaveRun(rl models.RunLog, logPath string) error
}

// RunOpts contains per-run options.
type RunOpts struct {
	Prompt string // optional prompt forwarded to the classifier
	Limit  int    // max liked tracks to process (default 1000)
	Public bool   // visibility for newly created playlists
}

// RunEngine orchestrates one classification run.
type RunEngine struct {
	library    services.Library
	playlists  services.PlaylistWriter
	classifier *vibes.Classifier
	store      Store
	logger     *log.Logger

	// per-run caches, reset at the start of Run
	playlistIDs map[models.Vibe]string
	members     map[string]map[string]bool // playlist ID -> track IDs present
	public      bool
}

// NewRunEngine creates a RunEngine with the provided collaborators.
// store may be nil when no local database is configured.
func NewRunEngine(library services.Library, playlists services.PlaylistWriter, classifier *vibes.Classifier, store Store, logger *log.Logger) *RunEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &RunEngine{
		library:    library,
		playlists:  playlists,
		classifier: classifier,
		store:      store,
		logger:     logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls the pipeline.
func (e *RunEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes the full pipeline and returns the run log.
//
// Tracks are processed strictly sequentially in library order. Per-track
// failures are recorded with an error status and never abort the run; only
// the initial library fetch is fatal.
func (e *RunEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*models.RunLog, error) {
	if e.library == nil || e.playlists == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Limit <= 0 {
		opts.Limit = 1000
	}

	e.playlistIDs = make(map[models.Vibe]string)
	e.members = make(map[string]map[string]bool)
	e.public = opts.Public

	rl := &models.RunLog{
		RunID:     shared.GenerateID(),
		StartedAt: time.Now(),
		Prompt:    opts.Prompt,
		Playlists: make(map[string]string),
	}

	e.sendProgress(progress, fetchLibraryUpdate(1, 1))

	tracks, err := e.library.LikedTracks(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch liked tracks: %v", shared.ErrAPIRequest, err)
	}

	e.sendProgress(progress, libraryFetchedUpdate(1, 1, len(tracks)))

	total := len(tracks)
	for i, track := range tracks {
		e.sendProgress(progress, classifyTrackUpdate(i+1, total, track))

		vibe, source := e.classifier.Classify(ctx, track, opts.Prompt)
		assignment := e.assign(ctx, progress, i+1, total, track, vibe, source)

		rl.Entries = append(rl.Entries, assignment)

		if e.store != nil {
			if err := e.store.SaveAssignment(rl.RunID, assignment); err != nil {
				e.logger.Warnf("failed to record assignment for %s: %v", track.ID, err)
			}
		}
	}

	rl.TracksProcessed = len(rl.Entries)
	rl.CompletedAt = time.Now()
	for vibe, id := range e.playlistIDs {
		rl.Playlists[string(vibe)] = id
	}

	return rl, nil
}

// assign ensures the vibe playlist exists and adds the track to it.
// Always returns an Assignment so the log covers every fetched track.
func (e *RunEngine) assign(ctx context.Context, progress chan<- ProgressUpdate, step, total int, track models.Track, vibe models.Vibe, source models.Source) models.Assignment {
	assignment := models.Assignment{
		TrackID:    track.ID,
		TrackTitle: track.Title,
		Vibe:       vibe,
		Source:     source,
		Status:     models.StatusOK,
		AssignedAt: time.Now(),
	}

	playlistID, err := e.ensurePlaylist(ctx, progress, vibe, e.describe(vibe))
	if err != nil {
		e.logger.Warnf("playlist for %s unavailable: %v", vibe, err)
		assignment.Status = models.StatusError
		assignment.Error = err.Error()
		return assignment
	}
	assignment.PlaylistID = playlistID

	added, err := e.addTrack(ctx, playlistID, track.ID)
	if err != nil {
		e.logger.Warnf("failed to add %s to %s: %v", track.ID, vibe, err)
		assignment.Status = models.StatusError
		assignment.Error = err.Error()
		return assignment
	}

	e.sendProgress(progress, trackAssignedUpdate(step, total, track, vibe, added))
	return assignment
}

// describe builds the playlist description for a vibe.
func (e *RunEngine) describe(vibe models.Vibe) string {
	return fmt.Sprintf("VibePilot - %s", vibe)
}

// ensurePlaylist resolves a vibe to a playlist ID: per-run memo, then local
// cache, then exact-name lookup on the service, then creation. A playlist
// for a given vibe is created at most once per account.
func (e *RunEngine) ensurePlaylist(ctx context.Context, progress chan<- ProgressUpdate, vibe models.Vibe, description string) (string, error) {
	if id, ok := e.playlistIDs[vibe]; ok {
		return id, nil
	}

	name := string(vibe)

	if e.store != nil {
		if id, ok := e.store.LookupPlaylist(name); ok {
			e.playlistIDs[vibe] = id
			return id, nil
		}
	}

	playlist, err := e.playlists.FindPlaylistByName(ctx, name)
	if err == nil {
		e.remember(vibe, *playlist)
		return playlist.ID, nil
	}
	if !errors.Is(err, shared.ErrPlaylistNotFound) {
		// transient lookup failures must not trigger creation
		return "", fmt.Errorf("%w: failed to look up playlist %q: %v", shared.ErrAPIRequest, name, err)
	}

	e.sendProgress(progress, createPlaylistUpdate(vibe))

	created, err := e.playlists.CreatePlaylist(ctx, name, description, e.public)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create playlist %q: %v", shared.ErrAPIRequest, name, err)
	}

	e.remember(vibe, *created)
	return created.ID, nil
}

// remember records a resolved playlist in the per-run memo and local cache.
func (e *RunEngine) remember(vibe models.Vibe, playlist models.Playlist) {
	e.playlistIDs[vibe] = playlist.ID
	if e.store != nil {
		if err := e.store.SavePlaylist(playlist); err != nil {
			e.logger.Warnf("failed to cache playlist %s: %v", playlist.Name, err)
		}
	}
}

// addTrack adds a track to a playlist unless it is already a member.
// Returns whether the track was newly added.
func (e *RunEngine) addTrack(ctx context.Context, playlistID, trackID string) (bool, error) {
	members, err := e.playlistMembers(ctx, playlistID)
	if err != nil {
		return false, err
	}

	if members[trackID] {
		return false, nil
	}

	if e.store != nil {
		if present, err := e.store.HasAssignment(trackID, playlistID); err == nil && present {
			members[trackID] = true
			return false, nil
		}
	}

	if err := e.playlists.AddTracks(ctx, playlistID, []string{trackID}); err != nil {
		return false, err
	}

	members[trackID] = true
	return true, nil
}

// playlistMembers fetches a playlist's current track IDs once per run.
func (e *RunEngine) playlistMembers(ctx context.Context, playlistID string) (map[string]bool, error) {
	if members, ok := e.members[playlistID]; ok {
		return members, nil
	}

	ids, err := e.playlists.PlaylistTrackIDs(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlist tracks: %v", shared.ErrAPIRequest, err)
	}

	members := make(map[string]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}
	e.members[playlistID] = members

	return members, nil
}
