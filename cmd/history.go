package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vibepilot/internal/formatter"
	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
	"github.com/desertthunder/vibepilot/internal/tasks"
)

// runSummary is the JSON shape for history list output.
type runSummary struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	Prompt          string    `json:"prompt,omitempty"`
	TracksProcessed int       `json:"tracks_processed"`
	LogPath         string    `json:"log_path,omitempty"`
}

// HistoryList prints recorded runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, store, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	limit := int(cmd.Int("limit"))

	runs, err := store.Runs().List(map[string]any{"limit": limit})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		summaries := make([]runSummary, 0, len(runs))
		for _, run := range runs {
			summaries = append(summaries, runSummary{
				RunID:           run.ID(),
				StartedAt:       run.StartedAt(),
				CompletedAt:     run.CompletedAt(),
				Prompt:          run.Prompt(),
				TracksProcessed: run.TracksProcessed(),
				LogPath:         run.LogPath(),
			})
		}
		return r.writeJSON(summaries, true)
	}

	if len(runs) == 0 {
		r.writePlain("No runs recorded yet. Start one with: vibepilot run\n")
		return nil
	}

	r.writePlain("Found %d runs:\n\n", len(runs))
	for i, run := range runs {
		r.writePlain("%d. %s\n", i+1, run.ID())
		r.writePlain("   Completed: %s\n", run.CompletedAt().Format(time.RFC3339))
		if run.Prompt() != "" {
			r.writePlain("   Prompt: %s\n", run.Prompt())
		}
		r.writePlain("   Tracks: %d\n", run.TracksProcessed())
		if run.LogPath() != "" {
			r.writePlain("   Log: %s\n", run.LogPath())
		}
		r.writePlain("\n")
	}

	return nil
}

// loadRunLog resolves a run ID to its full log, preferring the JSON log file
// and falling back to database history.
func (r *Runner) loadRunLog(runID string) (*models.RunLog, error) {
	db, store, err := r.openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	run, err := store.Runs().Get(runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, runID)
	}

	if run.LogPath() != "" {
		if rl, err := tasks.ReadRunLog(run.LogPath()); err == nil {
			return rl, nil
		}
		r.logger.Warnf("run log file missing at %s, rebuilding from database", run.LogPath())
	}

	assignments, err := store.Assignments().ListByRun(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	rl := &models.RunLog{
		RunID:           run.ID(),
		StartedAt:       run.StartedAt(),
		CompletedAt:     run.CompletedAt(),
		Prompt:          run.Prompt(),
		TracksProcessed: run.TracksProcessed(),
		Playlists:       make(map[string]string),
	}
	for _, assignment := range assignments {
		entry := assignment.Assignment()
		rl.Entries = append(rl.Entries, entry)
		if entry.PlaylistID != "" {
			rl.Playlists[string(entry.Vibe)] = entry.PlaylistID
		}
	}

	return rl, nil
}

// HistoryShow prints the full log of one run.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	runID := cmd.StringArg("run-id")
	if runID == "" {
		return fmt.Errorf("%w: run-id argument is required", shared.ErrMissingArgument)
	}

	rl, err := r.loadRunLog(runID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(rl, true)
	}

	r.writePlain("Run: %s\n", rl.RunID)
	r.writePlain("Started: %s\n", rl.StartedAt.Format(time.RFC3339))
	r.writePlain("Completed: %s\n", rl.CompletedAt.Format(time.RFC3339))
	if rl.Prompt != "" {
		r.writePlain("Prompt: %s\n", rl.Prompt)
	}
	r.writePlain("Tracks: %d\n\n", rl.TracksProcessed)

	for i, entry := range rl.Entries {
		status := ""
		if entry.Status == models.StatusError {
			status = fmt.Sprintf(" [error: %s]", entry.Error)
		}
		r.writePlain("%d. %s -> %s (%s)%s\n", i+1, entry.TrackTitle, entry.Vibe, entry.Source, status)
	}

	return nil
}

// HistoryExport renders a run log as CSV, Markdown, or plain text.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	runID := cmd.StringArg("run-id")
	if runID == "" {
		return fmt.Errorf("%w: run-id argument is required", shared.ErrMissingArgument)
	}

	rl, err := r.loadRunLog(runID)
	if err != nil {
		return err
	}

	path, err := formatter.WriteRunExport(rl, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Run exported to %s\n", path)
	return nil
}
