package models

import (
	"fmt"
	"time"
)

// PersistedPlaylist wraps a Playlist DTO with persistence metadata for the
// local playlist cache.
type PersistedPlaylist struct {
	id        string
	sequence  int
	playlist  Playlist
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedPlaylist creates a cache row for a playlist on the user's account.
func NewPersistedPlaylist(sequence int, playlist Playlist) *PersistedPlaylist {
	now := time.Now()
	return &PersistedPlaylist{
		sequence:  sequence,
		playlist:  playlist,
		createdAt: now,
		updatedAt: now,
	}
}

func (p *PersistedPlaylist) ID() string            { return p.id }
func (p *PersistedPlaylist) Sequence() int         { return p.sequence }
func (p *PersistedPlaylist) ServiceID() string     { return p.playlist.ID }
func (p *PersistedPlaylist) Playlist() Playlist    { return p.playlist }
func (p *PersistedPlaylist) CreatedAt() time.Time  { return p.createdAt }
func (p *PersistedPlaylist) UpdatedAt() time.Time  { return p.updatedAt }
func (p *PersistedPlaylist) DeletedAt() *time.Time { return p.deletedAt }

func (p *PersistedPlaylist) SetID(id string)             { p.id = id }
func (p *PersistedPlaylist) SetCreatedAt(t time.Time)    { p.createdAt = t }
func (p *PersistedPlaylist) SetUpdatedAt(t time.Time)    { p.updatedAt = t }
func (p *PersistedPlaylist) SetDeletedAt(t *time.Time)   { p.deletedAt = t }
func (p *PersistedPlaylist) SetPlaylist(dto Playlist)    { p.playlist = dto }
func (p *PersistedPlaylist) SetTrackCount(trackCount int) { p.playlist.TrackCount = trackCount }

// Validate checks required playlist fields.
func (p *PersistedPlaylist) Validate() error {
	if p.playlist.ID == "" {
		return fmt.Errorf("playlist service ID is required")
	}
	if p.playlist.Name == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}

// PersistedAssignment wraps an Assignment DTO with persistence metadata for
// cross-run duplicate suppression and history.
type PersistedAssignment struct {
	id         string
	sequence   int
	runID      string
	assignment Assignment
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewPersistedAssignment creates a history row for one processed track.
func NewPersistedAssignment(sequence int, runID string, assignment Assignment) *PersistedAssignment {
	now := time.Now()
	return &PersistedAssignment{
		sequence:   sequence,
		runID:      runID,
		assignment: assignment,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (a *PersistedAssignment) ID() string             { return a.id }
func (a *PersistedAssignment) Sequence() int          { return a.sequence }
func (a *PersistedAssignment) RunID() string          { return a.runID }
func (a *PersistedAssignment) Assignment() Assignment { return a.assignment }
func (a *PersistedAssignment) CreatedAt() time.Time   { return a.createdAt }
func (a *PersistedAssignment) UpdatedAt() time.Time   { return a.updatedAt }
func (a *PersistedAssignment) DeletedAt() *time.Time  { return a.deletedAt }

func (a *PersistedAssignment) SetID(id string)           { a.id = id }
func (a *PersistedAssignment) SetCreatedAt(t time.Time)  { a.createdAt = t }
func (a *PersistedAssignment) SetUpdatedAt(t time.Time)  { a.updatedAt = t }
func (a *PersistedAssignment) SetDeletedAt(t *time.Time) { a.deletedAt = t }

// Validate checks required assignment fields.
func (a *PersistedAssignment) Validate() error {
	if a.runID == "" {
		return fmt.Errorf("run ID is required")
	}
	if a.assignment.TrackID == "" {
		return fmt.Errorf("track ID is required")
	}
	if a.assignment.Vibe == "" {
		return fmt.Errorf("vibe is required")
	}
	return nil
}

// PersistedRun records one completed execution in the local database.
// The run's UUID doubles as the row ID.
type PersistedRun struct {
	id              string
	sequence        int
	prompt          string
	tracksProcessed int
	logPath         string
	startedAt       time.Time
	completedAt     time.Time
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       *time.Time
}

// NewPersistedRun creates a history row from a completed run log.
func NewPersistedRun(sequence int, rl RunLog, logPath string) *PersistedRun {
	now := time.Now()
	return &PersistedRun{
		id:              rl.RunID,
		sequence:        sequence,
		prompt:          rl.Prompt,
		tracksProcessed: rl.TracksProcessed,
		logPath:         logPath,
		startedAt:       rl.StartedAt,
		completedAt:     rl.CompletedAt,
		createdAt:       now,
		updatedAt:       now,
	}
}

func (r *PersistedRun) ID() string             { return r.id }
func (r *PersistedRun) Sequence() int          { return r.sequence }
func (r *PersistedRun) Prompt() string         { return r.prompt }
func (r *PersistedRun) TracksProcessed() int   { return r.tracksProcessed }
func (r *PersistedRun) LogPath() string        { return r.logPath }
func (r *PersistedRun) StartedAt() time.Time   { return r.startedAt }
func (r *PersistedRun) CompletedAt() time.Time { return r.completedAt }
func (r *PersistedRun) CreatedAt() time.Time   { return r.createdAt }
func (r *PersistedRun) UpdatedAt() time.Time   { return r.updatedAt }
func (r *PersistedRun) DeletedAt() *time.Time  { return r.deletedAt }

func (r *PersistedRun) SetID(id string)           { r.id = id }
func (r *PersistedRun) SetCreatedAt(t time.Time)  { r.createdAt = t }
func (r *PersistedRun) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *PersistedRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Validate checks required run fields.
func (r *PersistedRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run ID is required")
	}
	if r.completedAt.Before(r.startedAt) {
		return fmt.Errorf("run completed before it started")
	}
	return nil
}
