package roster

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\d+$`)

// Mode is the retrieval strategy derived from a [State].
type Mode int

const (
	Default Mode = iota
	SearchByName
	SearchByPhone
	FilterByTrack
)

func (m Mode) String() string {
	switch m {
	case Default:
		return "default"
	case SearchByName:
		return "search_by_name"
	case SearchByPhone:
		return "search_by_phone"
	case FilterByTrack:
		return "filter_by_track"
	default:
		return ""
	}
}

// State is the roster's input state. Use [NewState] and [Reduce]; the zero value is normalized to page 1.
type State struct {
	SearchText string
	TrackID    string
	Page       int
}

// NewState returns the Default-mode state on page 1.
func NewState() State {
	return State{Page: 1}
}

// Mode derives the active [Mode].
func (s State) Mode() Mode {
	switch {
	case s.TrackID != "":
		return FilterByTrack
	case strings.TrimSpace(s.SearchText) == "":
		return Default
	case phonePattern.MatchString(s.SearchText):
		return SearchByPhone
	default:
		return SearchByName
	}
}

// Action is a state transition handled by [Reduce].
type Action interface {
	apply(State) State
}

// SetSearchText replaces the search text, clears the track selection, and returns to page 1.
type SetSearchText struct{ Text string }

// SelectTrack sets (or, when empty, clears) the track selection, clears the search text, and returns to page 1.
type SelectTrack struct{ TrackID string }

// SetPage moves to Page, clamped to at least 1.
type SetPage struct{ Page int }

// NextPage advances one page.
type NextPage struct{}

// PrevPage goes back one page, never below 1.
type PrevPage struct{}

// Reset returns to Default mode on page 1.
type Reset struct{}

func (a SetSearchText) apply(s State) State {
	return State{SearchText: a.Text, Page: 1}
}

func (a SelectTrack) apply(s State) State {
	return State{TrackID: a.TrackID, Page: 1}
}

func (a SetPage) apply(s State) State {
	s.Page = clampPage(a.Page)
	return s
}

func (NextPage) apply(s State) State {
	s.Page = clampPage(s.Page) + 1
	return s
}

func (PrevPage) apply(s State) State {
	s.Page = clampPage(s.Page - 1)
	return s
}

func (Reset) apply(State) State {
	return NewState()
}

// Reduce applies action to s and returns the new state. A nil action only normalizes the page.
func Reduce(s State, action Action) State {
	s.Page = clampPage(s.Page)
	if action == nil {
		return s
	}
	return action.apply(s)
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
