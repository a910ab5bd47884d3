// Package ui implements an interactive leaderboard using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [BoardView] : the ranked page, a search box, and paging
//  2. [TrackPickerView] : choose a track filter, or "All tracks" to clear it
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every input change dispatches a fetch through the [roster.Router]; fetches run as commands and their results
// are applied only when they belong to the latest dispatch, so fast typing never shows an older query's page.
//
// Keyboard navigation uses vim-style bindings (h/l, j/k, /, t, c, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
