package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
)

// runLogTimestamp is the layout for run log filenames.
const runLogTimestamp = "20060102_150405"

// WriteRunLog persists a completed run log as pretty-printed JSON under dir,
// named by the run's completion timestamp. When two runs complete within the
// same second, the run ID prefix disambiguates the filename.
//
// A write failure here is the terminal failure of an otherwise-successful run.
func WriteRunLog(dir string, rl *models.RunLog) (string, error) {
	if dir == "" {
		dir = "logs"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create log directory: %v", shared.ErrRunLogWrite, err)
	}

	name := fmt.Sprintf("run_%s.json", rl.CompletedAt.Format(runLogTimestamp))
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil && len(rl.RunID) >= 8 {
		name = fmt.Sprintf("run_%s_%s.json", rl.CompletedAt.Format(runLogTimestamp), rl.RunID[:8])
		path = filepath.Join(dir, name)
	}

	data, err := shared.MarshalJSON(rl, true)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal run log: %v", shared.ErrRunLogWrite, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRunLogWrite, err)
	}

	return path, nil
}

// Persist writes the run log to dir, records the run in the store, and
// reports the written path on the progress channel.
func (e *RunEngine) Persist(progress chan<- ProgressUpdate, dir string, rl *models.RunLog) (string, error) {
	path, err := WriteRunLog(dir, rl)
	if err != nil {
		return "", err
	}

	if e.store != nil {
		if err := e.store.SaveRun(*rl, path); err != nil {
			e.logger.Warnf("failed to record run %s: %v", rl.RunID, err)
		}
	}

	e.sendProgress(progress, writeLogUpdate(path))
	return path, nil
}

// ReadRunLog loads a previously written run log file.
func ReadRunLog(path string) (*models.RunLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}

	var rl models.RunLog
	if err := json.Unmarshal(data, &rl); err != nil {
		return nil, fmt.Errorf("failed to parse run log: %w", err)
	}

	return &rl, nil
}
