// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI wraps a classification run in a three-view workflow:
//  1. [ConfirmView] : Review run options before touching the account
//  2. [RunView] : Monitor fetch, classify, and assign progress in real time
//  3. [ResultView] : Display per-vibe counts and any per-track errors
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the RunEngine, providing non-blocking status reporting during runs.
//
// Keyboard bindings (y/n, enter, esc, q) come with contextual help displayed via charmbracelet/bubbles/help.
package ui
