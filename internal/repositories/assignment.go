package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
)

// AssignmentRepository implements models.Repository[*models.PersistedAssignment]
// for assignment history.
//
// History rows power cross-run duplicate suppression and the history command.
type AssignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new AssignmentRepository with the given database connection
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a new assignment into the database with generated ID and sequence
func (r *AssignmentRepository) Create(assignment *models.PersistedAssignment) error {
	sequence, err := NextSequence(r.db, "assignments")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	assignment.SetID(id)

	if err := assignment.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	dto := assignment.Assignment()

	query := `
		INSERT INTO assignments (id, sequence, run_id, track_id, track_title, vibe, playlist_id, source, status, error, assigned_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		assignment.RunID(),
		dto.TrackID,
		dto.TrackTitle,
		string(dto.Vibe),
		dto.PlaylistID,
		string(dto.Source),
		dto.Status,
		dto.Error,
		dto.AssignedAt,
		assignment.CreatedAt(),
		assignment.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	return nil
}

// Get retrieves an assignment by ID, excluding soft-deleted assignments
func (r *AssignmentRepository) Get(id string) (*models.PersistedAssignment, error) {
	query := `
		SELECT id, sequence, run_id, track_id, track_title, vibe, playlist_id, source, status, error, assigned_at, created_at, updated_at, deleted_at
		FROM assignments
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// HasTrackInPlaylist reports whether any prior successful assignment added the
// track to the playlist.
func (r *AssignmentRepository) HasTrackInPlaylist(trackID, playlistID string) (bool, error) {
	query := `
		SELECT COUNT(1)
		FROM assignments
		WHERE track_id = ? AND playlist_id = ? AND status = ? AND deleted_at IS NULL
	`

	var count int
	if err := r.db.QueryRow(query, trackID, playlistID, models.StatusOK).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count assignments: %w", err)
	}

	return count > 0, nil
}

// ListByRun retrieves all assignments recorded for a run, in processing order
func (r *AssignmentRepository) ListByRun(runID string) ([]*models.PersistedAssignment, error) {
	return r.List(map[string]any{"run_id": runID})
}

// Update modifies an existing assignment in the database
func (r *AssignmentRepository) Update(assignment *models.PersistedAssignment) error {
	if err := assignment.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	assignment.SetUpdatedAt(now)

	dto := assignment.Assignment()

	query := `
		UPDATE assignments
		SET vibe = ?, playlist_id = ?, source = ?, status = ?, error = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(dto.Vibe),
		dto.PlaylistID,
		string(dto.Source),
		dto.Status,
		dto.Error,
		now,
		assignment.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assignment not found or already deleted: %s", assignment.ID())
	}

	return nil
}

// Delete soft-deletes an assignment by ID
func (r *AssignmentRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE assignments
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assignment not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all assignments matching the given criteria, excluding soft-deleted rows
func (r *AssignmentRepository) List(criteria map[string]any) ([]*models.PersistedAssignment, error) {
	query := `
		SELECT id, sequence, run_id, track_id, track_title, vibe, playlist_id, source, status, error, assigned_at, created_at, updated_at, deleted_at
		FROM assignments
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}

	if vibe, ok := criteria["vibe"].(string); ok && vibe != "" {
		query += " AND vibe = ?"
		args = append(args, vibe)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.PersistedAssignment
	for rows.Next() {
		assignment, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return assignments, nil
}

// scanOne scans a single row into a [models.PersistedAssignment]
func (r *AssignmentRepository) scanOne(row *sql.Row) (*models.PersistedAssignment, error) {
	var (
		id         string
		sequence   int
		runID      string
		trackID    string
		trackTitle string
		vibe       string
		playlistID string
		source     string
		status     string
		errText    string
		assignedAt time.Time
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &runID, &trackID, &trackTitle, &vibe, &playlistID, &source, &status, &errText, &assignedAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}

	dto := models.Assignment{
		TrackID:    trackID,
		TrackTitle: trackTitle,
		Vibe:       models.Vibe(vibe),
		PlaylistID: playlistID,
		Source:     models.Source(source),
		Status:     status,
		Error:      errText,
		AssignedAt: assignedAt,
	}

	assignment := models.NewPersistedAssignment(sequence, runID, dto)
	assignment.SetID(id)
	assignment.SetCreatedAt(createdAt)
	assignment.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		assignment.SetDeletedAt(&deletedAt.Time)
	}

	return assignment, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedAssignment]
func (r *AssignmentRepository) scanRow(rows *sql.Rows) (*models.PersistedAssignment, error) {
	var (
		id         string
		sequence   int
		runID      string
		trackID    string
		trackTitle string
		vibe       string
		playlistID string
		source     string
		status     string
		errText    string
		assignedAt time.Time
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &runID, &trackID, &trackTitle, &vibe, &playlistID, &source, &status, &errText, &assignedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}

	dto := models.Assignment{
		TrackID:    trackID,
		TrackTitle: trackTitle,
		Vibe:       models.Vibe(vibe),
		PlaylistID: playlistID,
		Source:     models.Source(source),
		Status:     status,
		Error:      errText,
		AssignedAt: assignedAt,
	}

	assignment := models.NewPersistedAssignment(sequence, runID, dto)
	assignment.SetID(id)
	assignment.SetCreatedAt(createdAt)
	assignment.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		assignment.SetDeletedAt(&deletedAt.Time)
	}

	return assignment, nil
}
