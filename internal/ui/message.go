package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/tasks"
)

// progressUpdateMsg carries one engine progress event into the Elm loop.
type progressUpdateMsg tasks.ProgressUpdate

// runCompleteMsg signals the engine goroutine finished, successfully or not.
type runCompleteMsg struct {
	log *models.RunLog
	err error
}

var (
	_ tea.Msg = progressUpdateMsg{}
	_ tea.Msg = runCompleteMsg{}
)
