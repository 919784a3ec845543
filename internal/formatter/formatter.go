// package formatter provides functions to export run logs to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/shared"
)

// Export formats accepted by WriteRunExport
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// ExportToCSV converts a run log to CSV format with columns: Track ID, Title, Vibe, Playlist ID, Source, Status, Error
func ExportToCSV(rl *models.RunLog) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Track ID", "Title", "Vibe", "Playlist ID", "Source", "Status", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range rl.Entries {
		record := []string{
			entry.TrackID,
			entry.TrackTitle,
			string(entry.Vibe),
			entry.PlaylistID,
			string(entry.Source),
			entry.Status,
			entry.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a run log to Markdown with a summary header and
// one section per vibe.
func ExportToMarkdown(rl *models.RunLog) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Run %s\n\n", rl.RunID))
	buf.WriteString(fmt.Sprintf("**Started**: %s\n", rl.StartedAt.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("**Completed**: %s\n", rl.CompletedAt.Format(time.RFC3339)))
	if rl.Prompt != "" {
		buf.WriteString(fmt.Sprintf("**Prompt**: %s\n", rl.Prompt))
	}
	buf.WriteString(fmt.Sprintf("**Tracks processed**: %d\n\n", rl.TracksProcessed))

	byVibe := make(map[models.Vibe][]models.Assignment)
	var failed []models.Assignment
	for _, entry := range rl.Entries {
		if entry.Status == models.StatusError {
			failed = append(failed, entry)
			continue
		}
		byVibe[entry.Vibe] = append(byVibe[entry.Vibe], entry)
	}

	vibes := make([]string, 0, len(byVibe))
	for vibe := range byVibe {
		vibes = append(vibes, string(vibe))
	}
	sort.Strings(vibes)

	for _, vibe := range vibes {
		entries := byVibe[models.Vibe(vibe)]
		buf.WriteString(fmt.Sprintf("## %s (%d)\n\n", vibe, len(entries)))
		for i, entry := range entries {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, entry.TrackTitle))
		}
		buf.WriteString("\n")
	}

	if len(failed) > 0 {
		buf.WriteString(fmt.Sprintf("## Errors (%d)\n\n", len(failed)))
		for i, entry := range failed {
			buf.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, entry.TrackTitle, entry.Error))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a run log to plain text format
func ExportToText(rl *models.RunLog) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run: %s\n", rl.RunID))
	if rl.Prompt != "" {
		buf.WriteString(fmt.Sprintf("Prompt: %s\n", rl.Prompt))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", rl.TracksProcessed))

	for i, entry := range rl.Entries {
		status := ""
		if entry.Status == models.StatusError {
			status = fmt.Sprintf(" [error: %s]", entry.Error)
		}
		buf.WriteString(fmt.Sprintf("%d. %s -> %s%s\n", i+1, entry.TrackTitle, entry.Vibe, status))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of run metadata (without entries)
func ToMetadataJSON(rl *models.RunLog) ([]byte, error) {
	meta := models.RunLog{
		RunID:           rl.RunID,
		StartedAt:       rl.StartedAt,
		CompletedAt:     rl.CompletedAt,
		Prompt:          rl.Prompt,
		TracksProcessed: rl.TracksProcessed,
		Playlists:       rl.Playlists,
	}
	return shared.MarshalJSON(meta, true)
}

// WriteRunExport renders a run log in the requested format and writes it to path.
//
// Defaults the filename to run_{id}.{ext} in the working directory when path is empty.
func WriteRunExport(rl *models.RunLog, format, path string) (string, error) {
	var (
		data []byte
		ext  string
		err  error
	)

	switch format {
	case FormatCSV:
		data, err = ExportToCSV(rl)
		ext = "csv"
	case FormatMarkdown, "md":
		data, err = ExportToMarkdown(rl)
		ext = "md"
	case FormatText, "txt", "":
		data, err = ExportToText(rl)
		ext = "txt"
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate export: %w", err)
	}

	if path == "" {
		path = fmt.Sprintf("run_%s.%s", rl.RunID, ext)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
