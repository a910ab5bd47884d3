package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	search key.Binding
	blur   key.Binding
	prev   key.Binding
	next   key.Binding
	tracks key.Binding
	clear  key.Binding
	retry  key.Binding
	enter  key.Binding
	back   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		blur:   key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "done")),
		prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		tracks: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tracks")),
		clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.prev, k.next, k.tracks, k.clear, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.search, k.blur},
		{k.prev, k.next},
		{k.tracks, k.clear, k.retry, k.quit},
	}
}
