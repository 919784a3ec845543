package tasks

import (
	"fmt"

	"github.com/desertthunder/vibepilot/internal/models"
)

// ProgressUpdate represents a progress event during a run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchLibrary Phase = iota
	ClassifyTrack
	CreatePlaylist
	AssignTrack
	WriteLog
)

func (p Phase) String() string {
	switch p {
	case FetchLibrary:
		return "fetch_library"
	case ClassifyTrack:
		return "classify_track"
	case CreatePlaylist:
		return "create_playlist"
	case AssignTrack:
		return "assign_track"
	case WriteLog:
		return "write_log"
	default:
		return ""
	}
}

func fetchLibraryUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    step,
		Total:   total,
		Message: "Fetching liked songs from Spotify...",
	}
}

func libraryFetchedUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found %d liked songs", count),
		Data:    count,
	}
}

func classifyTrackUpdate(step, total int, track models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClassifyTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, track.PrimaryArtist(), track.Title),
	}
}

func createPlaylistUpdate(vibe models.Vibe) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist: %s", vibe),
		Data:    vibe,
	}
}

func trackAssignedUpdate(step, total int, track models.Track, vibe models.Vibe, added bool) ProgressUpdate {
	verb := "added to"
	if !added {
		verb = "already in"
	}
	return ProgressUpdate{
		Phase:   AssignTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s %s", step, total, track.Title, verb, vibe),
	}
}

func writeLogUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteLog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Run log written to %s", path),
		Data:    path,
	}
}
