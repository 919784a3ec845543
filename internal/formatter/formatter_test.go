package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
)

func sampleRunLog() *models.RunLog {
	started := time.Date(2025, 6, 1, 20, 30, 0, 0, time.UTC)
	return &models.RunLog{
		RunID:           "run-abc",
		StartedAt:       started,
		CompletedAt:     started.Add(time.Minute),
		Prompt:          "gym playlist please",
		TracksProcessed: 3,
		Playlists:       map[string]string{"Hype Gym": "pl1", "Sad Bops": "pl2"},
		Entries: []models.Assignment{
			{TrackID: "t1", TrackTitle: "One", Vibe: "Hype Gym", PlaylistID: "pl1", Source: models.SourceRule, Status: models.StatusOK},
			{TrackID: "t2", TrackTitle: "Two", Vibe: "Sad Bops", PlaylistID: "pl2", Source: models.SourceModel, Status: models.StatusOK},
			{TrackID: "t3", TrackTitle: "Three", Vibe: "Hype Gym", Source: models.SourceRule, Status: models.StatusError, Error: "add failed"},
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleRunLog())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header plus 3 rows", len(lines))
	}

	if lines[0] != "Track ID,Title,Vibe,Playlist ID,Source,Status,Error" {
		t.Errorf("header = %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "t1,One,Hype Gym,pl1,rule,ok") {
		t.Errorf("row = %s", lines[1])
	}
	if !strings.Contains(lines[3], "add failed") {
		t.Errorf("error row = %s", lines[3])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleRunLog())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"# Run run-abc",
		"**Started**: 2025-06-01T20:30:00Z",
		"**Prompt**: gym playlist please",
		"**Tracks processed**: 3",
		"## Hype Gym (1)",
		"## Sad Bops (1)",
		"## Errors (1)",
		"Three: add failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// failed entries belong in the errors section only
	hype := out[strings.Index(out, "## Hype Gym"):strings.Index(out, "## Sad Bops")]
	if strings.Contains(hype, "Three") {
		t.Error("failed track should not appear under its vibe")
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleRunLog())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"Run: run-abc",
		"Tracks: 3",
		"1. One -> Hype Gym",
		"3. Three -> Hype Gym [error: add failed]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text missing %q", want)
		}
	}
}

func TestToMetadataJSON(t *testing.T) {
	data, err := ToMetadataJSON(sampleRunLog())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var meta models.RunLog
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}

	if meta.RunID != "run-abc" || meta.TracksProcessed != 3 {
		t.Errorf("meta = %+v", meta)
	}
	if len(meta.Entries) != 0 {
		t.Error("metadata should omit entries")
	}
}

func TestWriteRunExport(t *testing.T) {
	t.Run("writes each format", func(t *testing.T) {
		cases := []struct {
			format string
			ext    string
		}{
			{FormatCSV, ".csv"},
			{FormatMarkdown, ".md"},
			{"md", ".md"},
			{FormatText, ".txt"},
			{"", ".txt"},
		}

		for _, tc := range cases {
			path := filepath.Join(t.TempDir(), "export"+tc.ext)
			got, err := WriteRunExport(sampleRunLog(), tc.format, path)
			if err != nil {
				t.Errorf("format %q failed: %v", tc.format, err)
				continue
			}
			if got != path {
				t.Errorf("format %q wrote to %s, want %s", tc.format, got, path)
			}
			if _, err := os.Stat(path); err != nil {
				t.Errorf("format %q: export file should exist: %v", tc.format, err)
			}
		}
	})

	t.Run("default filename uses run ID", func(t *testing.T) {
		tmpDir := t.TempDir()
		cwd, err := os.Getwd()
		if err != nil {
			t.Fatalf("getwd failed: %v", err)
		}
		if err := os.Chdir(tmpDir); err != nil {
			t.Fatalf("chdir failed: %v", err)
		}
		defer os.Chdir(cwd)

		path, err := WriteRunExport(sampleRunLog(), FormatCSV, "")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if path != "run_run-abc.csv" {
			t.Errorf("path = %s", path)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := WriteRunExport(sampleRunLog(), "yaml", "")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
