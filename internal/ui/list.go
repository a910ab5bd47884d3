package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/roster/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item]. The zero track is the "All tracks" entry.
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }

func (i trackItem) Title() string {
	if i.track.ID == "" {
		return "All tracks"
	}
	return i.track.Name
}

func (i trackItem) Description() string {
	if i.track.ID == "" {
		return "Clear the track filter"
	}
	return i.track.ID
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, 0, len(tracks)+1)
	items = append(items, trackItem{})
	for _, t := range tracks {
		items = append(items, trackItem{track: t})
	}
	return items
}
