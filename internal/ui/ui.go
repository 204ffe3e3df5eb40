package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jbtracks/internal/manager"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	OrganismListView ViewState = iota
	AssemblyListView
	TrackListView
	ConfirmView
	ResultView
)

// TrackStore is the part of [manager.Manager] the browser needs.
type TrackStore interface {
	ListOrganisms() ([]string, error)
	ListAssemblies(organism string) ([]string, error)
	ListTracks(organism, assembly string) ([]manager.TrackInfo, error)
	GetTrackStatistics(organism, assembly string) (*manager.Statistics, error)
	RemoveTrack(trackID, organism, assembly string, opts manager.Options) *manager.Result
}

var _ TrackStore = (*manager.Manager)(nil)

// Model represents the TUI application state.
type Model struct {
	store         TrackStore
	view          ViewState
	width         int
	height        int
	organismList  list.Model
	assemblyList  list.Model
	trackList     list.Model
	organism      string
	assembly      string
	selectedTrack *manager.TrackInfo
	stats         *manager.Statistics
	dryRun        bool
	result        *manager.Result
	err           error
	help          help.Model
	keys          keyMap
}

// NewModel creates a new TUI model over store. dryRun sets the initial state of the toggle.
func NewModel(store TrackStore, dryRun bool) *Model {
	return &Model{
		store:        store,
		view:         OrganismListView,
		organismList: newList(nil, "Organisms", 0, 0),
		assemblyList: newList(nil, "Assemblies", 0, 0),
		trackList:    newList(nil, "Tracks", 0, 0),
		dryRun:       dryRun,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// ViewState returns the current view.
func (m *Model) ViewState() ViewState { return m.view }

// DryRun reports whether removals are simulated.
func (m *Model) DryRun() bool { return m.dryRun }

// Init initializes the TUI by listing organisms.
func (m *Model) Init() tea.Cmd {
	return m.loadOrganisms()
}

func newList(items []list.Item, title string, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	if width > 0 && height > 0 {
		l.SetSize(width-4, height-8)
	}
	return l
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.organismList, &m.assemblyList, &m.trackList} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if m.err != nil {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			if key.Matches(msg, m.keys.back) {
				m.err = nil
			}
			return m, nil
		}
		if key.Matches(msg, m.keys.dryRun) && m.view != ConfirmView && !m.filtering() {
			m.dryRun = !m.dryRun
			return m, nil
		}
		switch m.view {
		case OrganismListView:
			return m.handleOrganismKeys(msg)
		case AssemblyListView:
			return m.handleAssemblyKeys(msg)
		case TrackListView:
			return m.handleTrackKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgOrganismsLoaded:
		data := msg.data.(namesData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.organismList = newList(dirItems(data.names, "organism"), "Organisms", m.width, m.height)
		m.view = OrganismListView

	case MsgAssembliesLoaded:
		data := msg.data.(namesData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.assemblyList = newList(dirItems(data.names, "assembly"), fmt.Sprintf("Assemblies of %s", m.organism), m.width, m.height)
		m.view = AssemblyListView

	case MsgTracksLoaded:
		data := msg.data.(tracksData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.tracks))
		for i, t := range data.tracks {
			items[i] = trackItem{track: t}
		}
		m.stats = data.stats
		m.trackList = newList(items, fmt.Sprintf("Tracks in %s/%s", m.organism, m.assembly), m.width, m.height)
		m.view = TrackListView

	case MsgTrackRemoved:
		m.result = msg.data.(*manager.Result)
		m.view = ResultView
	}
	return m, nil
}

func dirItems(names []string, kind string) []list.Item {
	items := make([]list.Item, len(names))
	for i, n := range names {
		items[i] = dirItem{name: n, desc: kind}
	}
	return items
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress esc to go back, q to quit", m.err))
	}

	var body string
	switch m.view {
	case OrganismListView:
		body = m.renderList(m.organismList, m.keys.enter, m.keys.dryRun, m.keys.quit)
	case AssemblyListView:
		body = m.renderList(m.assemblyList, m.keys.enter, m.keys.back, m.keys.dryRun, m.keys.quit)
	case TrackListView:
		body = m.renderTrackList()
	case ConfirmView:
		body = m.renderConfirm()
	case ResultView:
		body = m.renderResult()
	}

	if m.dryRun {
		return styles.dryRun.Render("DRY RUN") + "\n" + body
	}
	return body
}

func (m *Model) filtering() bool {
	switch m.view {
	case OrganismListView:
		return m.organismList.FilterState() == list.Filtering
	case AssemblyListView:
		return m.assemblyList.FilterState() == list.Filtering
	case TrackListView:
		return m.trackList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) handleOrganismKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.organismList.SelectedItem().(dirItem); ok {
				m.organism = item.name
				return m, m.loadAssemblies(item.name)
			}
		}
	}

	var cmd tea.Cmd
	m.organismList, cmd = m.organismList.Update(msg)
	return m, cmd
}

func (m *Model) handleAssemblyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = OrganismListView
			return m, nil
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.assemblyList.SelectedItem().(dirItem); ok {
				m.assembly = item.name
				return m, m.loadTracks(m.organism, item.name)
			}
		}
	}

	var cmd tea.Cmd
	m.assemblyList, cmd = m.assemblyList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = AssemblyListView
			return m, nil
		case key.Matches(msg, m.keys.remove):
			if item, ok := m.trackList.SelectedItem().(trackItem); ok {
				track := item.track
				m.selectedTrack = &track
				m.view = ConfirmView
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = TrackListView
		m.selectedTrack = nil
		return m, nil
	case key.Matches(msg, m.keys.yes):
		return m, m.removeTrack(*m.selectedTrack)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter), key.Matches(msg, m.keys.back):
		m.result = nil
		m.selectedTrack = nil
		return m, m.loadTracks(m.organism, m.assembly)
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case OrganismListView:
		m.organismList, cmd = m.organismList.Update(msg)
	case AssemblyListView:
		m.assemblyList, cmd = m.assemblyList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadOrganisms() tea.Cmd {
	return func() tea.Msg {
		organisms, err := m.store.ListOrganisms()
		return organismsLoadedMsg(organisms, err)
	}
}

func (m *Model) loadAssemblies(organism string) tea.Cmd {
	return func() tea.Msg {
		assemblies, err := m.store.ListAssemblies(organism)
		return assembliesLoadedMsg(assemblies, err)
	}
}

func (m *Model) loadTracks(organism, assembly string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.store.ListTracks(organism, assembly)
		if err != nil {
			return tracksLoadedMsg(nil, nil, err)
		}
		stats, err := m.store.GetTrackStatistics(organism, assembly)
		return tracksLoadedMsg(tracks, stats, err)
	}
}

func (m *Model) removeTrack(track manager.TrackInfo) tea.Cmd {
	organism, assembly, dryRun := m.organism, m.assembly, m.dryRun
	return func() tea.Msg {
		return trackRemovedMsg(m.store.RemoveTrack(track.TrackID, organism, assembly, manager.Options{DryRun: dryRun}))
	}
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderTrackList() string {
	var header string
	if m.stats != nil {
		types := make([]string, 0, len(m.stats.ByType))
		for t, n := range m.stats.ByType {
			types = append(types, fmt.Sprintf("%s %d", t, n))
		}
		sort.Strings(types)
		header = styles.help.Render(fmt.Sprintf("%d tracks, %s", m.stats.Total, formatSize(m.stats.TotalSize)))
		if len(types) > 0 {
			header += "\n" + styles.help.Render(strings.Join(types, " • "))
		}
		header += "\n"
	}
	return header + m.renderList(m.trackList, m.keys.remove, m.keys.back, m.keys.dryRun, m.keys.quit)
}

func (m *Model) renderConfirm() string {
	t := m.selectedTrack
	title := styles.title.Render(fmt.Sprintf("Remove '%s' from %s/%s?", t.TrackID, m.organism, m.assembly))
	info := fmt.Sprintf("\nType: %s\nName: %s\nConfig: %s\n", t.Type, t.Name, t.Path)
	if m.dryRun {
		info += styles.warn.Render("\nNothing will be deleted while dry run is on.") + "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress enter to go back, q to quit")
	}

	var b strings.Builder
	if m.result.Success {
		b.WriteString(styles.ok.Render("✓ Track removed"))
	} else {
		b.WriteString(styles.err.Render("✗ Removal failed"))
	}
	b.WriteString("\n")
	for _, item := range m.result.ItemsRemoved {
		fmt.Fprintf(&b, "\n  • %s", item)
	}
	for _, e := range m.result.Errors {
		fmt.Fprintf(&b, "\n  %s", styles.warn.Render(e))
	}

	helpKeys := []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "back to tracks")),
		m.keys.quit,
	}
	return fmt.Sprintf("%s\n\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
