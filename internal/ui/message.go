package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/roster"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageFetched MsgKind = iota
	MsgTracksFetched
)

type tracksFetched struct {
	tracks []models.Track
	err    error
}

// pageFetchedMsg is the constructor for [MsgPageFetched]
func pageFetchedMsg(res roster.Result) Msg {
	return Msg{kind: MsgPageFetched, data: res}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(tracks []models.Track, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksFetched{tracks, err}}
}
