package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/roster/internal/formatter"
	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/roster"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BoardView ViewState = iota
	TrackPickerView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	router    *roster.Router
	view      ViewState
	state     roster.State
	result    roster.Result
	hasResult bool
	loading   bool
	tracks    []models.Track
	trackErr  error
	search    textinput.Model
	spinner   spinner.Model
	trackList list.Model
	help      help.Model
	keys      keyMap
	width     int
	height    int
}

// NewModel creates a new TUI model reading through router.
func NewModel(ctx context.Context, router *roster.Router) *Model {
	search := textinput.New()
	search.Placeholder = "name or phone"
	search.Prompt = "Search: "
	search.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.warn

	trackList := list.New(trackItems(nil), list.NewDefaultDelegate(), 0, 0)
	trackList.Title = "Tracks"
	trackList.SetFilteringEnabled(false)
	trackList.SetShowHelp(false)
	trackList.DisableQuitKeybindings()

	return &Model{
		ctx:       ctx,
		router:    router,
		view:      BoardView,
		state:     roster.NewState(),
		search:    search,
		spinner:   sp,
		trackList: trackList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// State returns the current input state.
func (m *Model) State() roster.State {
	return m.state
}

// Init fetches the first page, the track catalog, and starts the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.dispatch(), m.fetchTracks(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-6)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case TrackPickerView:
			return m.handleTrackPickerKeys(msg)
		default:
			return m.handleBoardKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageFetched:
		res := msg.data.(roster.Result)
		if !m.router.Current(res) {
			return m, nil
		}
		m.result = res
		m.hasResult = true
		m.loading = false

	case MsgTracksFetched:
		data := msg.data.(tracksFetched)
		m.tracks = data.tracks
		m.trackErr = data.err
		m.trackList.SetItems(trackItems(data.tracks))
	}
	return m, nil
}

func (m *Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.search.Focused() {
		if key.Matches(msg, m.keys.blur) {
			m.search.Blur()
			return m, nil
		}

		var cmd tea.Cmd
		before := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() == before {
			return m, cmd
		}
		return m, tea.Batch(cmd, m.apply(roster.SetSearchText{Text: m.search.Value()}))
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.prev):
		if m.state.Page > 1 {
			return m, m.apply(roster.PrevPage{})
		}
	case key.Matches(msg, m.keys.next):
		if m.hasResult && m.result.HasNext() {
			return m, m.apply(roster.NextPage{})
		}
	case key.Matches(msg, m.keys.tracks):
		m.view = TrackPickerView
		if m.tracks == nil || m.trackErr != nil {
			return m, m.fetchTracks()
		}
	case key.Matches(msg, m.keys.clear):
		m.search.SetValue("")
		return m, m.apply(roster.Reset{})
	case key.Matches(msg, m.keys.retry):
		return m, m.dispatch()
	}
	return m, nil
}

func (m *Model) handleTrackPickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = BoardView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.view = BoardView
		item, ok := m.trackList.SelectedItem().(trackItem)
		if !ok {
			return m, nil
		}
		m.search.SetValue("")
		m.search.Blur()
		return m, m.apply(roster.SelectTrack{TrackID: item.track.ID})
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

// apply reduces the state and dispatches a fetch for the result.
func (m *Model) apply(action roster.Action) tea.Cmd {
	m.state = roster.Reduce(m.state, action)
	return m.dispatch()
}

// dispatch starts a new generation now so that ordering follows input order, and fetches in a command.
func (m *Model) dispatch() tea.Cmd {
	ticket := m.router.Dispatch(m.state)
	m.loading = true
	return func() tea.Msg {
		return pageFetchedMsg(m.router.Fetch(m.ctx, ticket))
	}
}

func (m *Model) fetchTracks() tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.router.Tracks(m.ctx)
		return tracksFetchedMsg(tracks, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case TrackPickerView:
		return m.renderTrackPicker()
	default:
		return m.renderBoard()
	}
}

func (m *Model) renderBoard() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.heading()))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	switch {
	case !m.hasResult:
		b.WriteString(fmt.Sprintf("%s Loading...\n", m.spinner.View()))
	case m.result.Failed():
		b.WriteString(styles.err.Render("Store unavailable"))
		b.WriteString("\n")
		b.WriteString(styles.help.Render("press r to retry"))
		b.WriteString("\n")
	case m.result.Empty():
		b.WriteString(styles.warn.Render("No students found"))
		b.WriteString("\n")
	default:
		b.WriteString(renderRows(m.result.Ranked()))
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) heading() string {
	switch m.state.Mode() {
	case roster.FilterByTrack:
		return "Leaderboard • " + m.trackName(m.state.TrackID)
	case roster.SearchByPhone:
		return "Leaderboard • phone search"
	case roster.SearchByName:
		return "Leaderboard • name search"
	default:
		return "Leaderboard"
	}
}

func (m *Model) trackName(id string) string {
	for _, t := range m.tracks {
		if t.ID == id {
			return t.Name
		}
	}
	return id
}

func (m *Model) footer() string {
	page := fmt.Sprintf("Page %d", m.state.Page)
	if m.hasResult && !m.result.Failed() {
		var nav []string
		if m.result.HasPrev() {
			nav = append(nav, "←")
		}
		if m.result.HasNext() {
			nav = append(nav, "→")
		}
		if len(nav) > 0 {
			page += " " + strings.Join(nav, " ")
		}
	}
	if m.loading && m.hasResult {
		page += " " + m.spinner.View()
	}
	return styles.help.Render(page)
}

func renderRows(ranked []roster.RankedStudent) string {
	var b strings.Builder
	b.WriteString(styles.header.Render(fmt.Sprintf("%5s  %-28s %6s  %s", "Rank", "Name", "Score", "Tracks")))
	b.WriteString("\n")
	for _, r := range ranked {
		line := fmt.Sprintf("%5d  %-28s %6d  %s", r.Rank, truncate(r.Name, 28), r.TotalScore, formatter.TrackNames(r.Tracks, ", "))
		if r.Podium {
			line = styles.podium.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderTrackPicker() string {
	if m.trackErr != nil {
		return fmt.Sprintf("%s\n\n%s",
			styles.err.Render("Track catalog unavailable"),
			m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
