package main

import (
	"context"
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/tasks"
	"github.com/desertthunder/vibepilot/internal/ui"
	"github.com/desertthunder/vibepilot/internal/vibes"
)

// Run executes a full classification run: fetch liked songs, classify each
// track, populate vibe playlists, and write the run log.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.requireSpotify()
	if err != nil {
		return err
	}

	opts := tasks.RunOpts{
		Prompt: cmd.String("prompt"),
		Limit:  int(cmd.Int("limit")),
		Public: cmd.Bool("public") || r.config.Run.Public,
	}
	if opts.Limit <= 0 && r.config.Run.LikedLimit > 0 {
		opts.Limit = r.config.Run.LikedLimit
	}

	logDir := cmd.String("log-dir")
	if logDir == "" {
		logDir = r.config.Run.LogDir
	}

	var store tasks.Store
	if !cmd.Bool("no-db") {
		db, runStore, err := r.openStore()
		if err != nil {
			r.logger.Warnf("history database unavailable, continuing without it: %v", err)
		} else {
			defer db.Close()
			store = runStore
		}
	}

	classifier := vibes.NewClassifier(r.completer, r.logger)
	if opts.Prompt != "" && r.completer == nil {
		r.logger.Warn("prompt given but no language model configured, using rules only")
	}

	engine := tasks.NewRunEngine(spotify, spotify, classifier, store, r.logger)

	if cmd.Bool("ui") {
		return r.runWithUI(ctx, engine, opts, logDir)
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	rl, err := engine.Run(ctx, progress, opts)
	if err != nil {
		close(progress)
		<-done
		if reauthed, authErr := r.handleSpotifyAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			progress = make(chan tasks.ProgressUpdate, 50)
			done = make(chan struct{})
			go func() {
				defer close(done)
				for update := range progress {
					r.writePlain("%s\n", update.Message)
				}
			}()
			rl, err = engine.Run(ctx, progress, opts)
			if err != nil {
				close(progress)
				<-done
				return err
			}
		} else {
			return err
		}
	}

	path, err := engine.Persist(progress, logDir, rl)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("run completed but the log could not be written: %w", err)
	}

	r.printRunSummary(rl, path)
	return nil
}

// runWithUI wraps the run in the interactive terminal interface.
func (r *Runner) runWithUI(ctx context.Context, engine *tasks.RunEngine, opts tasks.RunOpts, logDir string) error {
	model := ui.NewModel(ctx, engine, opts)

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	if err := model.Err(); err != nil {
		return err
	}

	rl := model.RunLog()
	if rl == nil {
		r.writePlain("Run cancelled.\n")
		return nil
	}

	path, err := engine.Persist(nil, logDir, rl)
	if err != nil {
		return fmt.Errorf("run completed but the log could not be written: %w", err)
	}

	r.printRunSummary(rl, path)
	return nil
}

// printRunSummary writes per-vibe counts and the log location.
func (r *Runner) printRunSummary(rl *models.RunLog, logPath string) {
	counts := make(map[string]int)
	failed := 0
	for _, entry := range rl.Entries {
		if entry.Status == models.StatusError {
			failed++
			continue
		}
		counts[string(entry.Vibe)]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	r.writePlainln("✓ Run complete")
	r.writePlain("Tracks processed: %d\n", rl.TracksProcessed)
	for _, name := range names {
		r.writePlain("  %s: %d\n", name, counts[name])
	}
	if failed > 0 {
		r.writePlain("  errors: %d (see run log)\n", failed)
	}
	r.writePlain("Run log: %s\n", logPath)
}
