package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include PersistedPlaylist, PersistedAssignment, and PersistedRun.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Vibe is one of the fixed mood labels tracks are sorted into.
type Vibe string

// Source records which classification path produced an assignment.
type Source string

const (
	SourceRule  Source = "rule"  // deterministic rule table
	SourceModel Source = "model" // language-model refinement
	SourceNone  Source = "none"  // no rule matched, fallback vibe
)

// Assignment statuses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// AudioFeatures holds the subset of Spotify audio analysis used for classification.
type AudioFeatures struct {
	Valence      float64 `json:"valence"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Acousticness float64 `json:"acousticness"`
	Tempo        float64 `json:"tempo"`
}

// Track represents a saved track from the user's library. Immutable once fetched.
type Track struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Artists  []string       `json:"artists"`
	Album    string         `json:"album,omitempty"`
	AddedAt  string         `json:"added_at,omitempty"`
	Genres   []string       `json:"genres,omitempty"`
	Features *AudioFeatures `json:"features,omitempty"`
}

// PrimaryArtist returns the first listed artist, or an empty string.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Playlist represents a playlist on the user's account.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// Assignment links a track to the vibe and playlist it was sorted into during a run.
// Append-only: one record per track per run, written regardless of outcome.
type Assignment struct {
	TrackID    string    `json:"track_id"`
	TrackTitle string    `json:"track_title,omitempty"`
	Vibe       Vibe      `json:"vibe"`
	PlaylistID string    `json:"playlist_id,omitempty"`
	Source     Source    `json:"source"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// RunLog is the ordered record of one execution, persisted as a JSON file.
type RunLog struct {
	RunID           string            `json:"run_id"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     time.Time         `json:"completed_at"`
	Prompt          string            `json:"prompt,omitempty"`
	TracksProcessed int               `json:"tracks_processed"`
	Playlists       map[string]string `json:"playlists"`
	Entries         []Assignment      `json:"entries"`
}
