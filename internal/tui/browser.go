// SPDX-License-Identifier: MIT

// Package tui is the interactive sample browser: a directory listing on top
// of the playback and analysis pipeline. Moving the cursor onto a file plays
// it; every other selection stops playback.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"samplex/internal/app"
	"samplex/internal/audio"
	"samplex/internal/decode"
	"samplex/internal/log"
	"samplex/internal/waveform"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	dirStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF"))
	panelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
)

const (
	waveformHalfHeight = 3
	spectrumHeight     = 6
	scopeWidth         = 23
	scopeHeight        = 9
	seekStep           = 0.05
	maxBatch           = 64
)

type ScreenType int

const (
	BrowserScreen ScreenType = iota
	DevicesScreen
)

type keyMap struct {
	Up, Down, Open, Back    key.Binding
	Toggle, Rewind, Forward key.Binding
	Devices, Close, Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:    key.NewBinding(key.WithKeys("enter", "l", "right"), key.WithHelp("enter", "open")),
	Back:    key.NewBinding(key.WithKeys("backspace", "h", "left"), key.WithHelp("⌫", "parent")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "stop/play")),
	Rewind:  key.NewBinding(key.WithKeys("[", ","), key.WithHelp("[", "seek -5%")),
	Forward: key.NewBinding(key.WithKeys("]", "."), key.WithHelp("]", "seek +5%")),
	Devices: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "devices")),
	Close:   key.NewBinding(key.WithKeys("esc", "d")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type entry struct {
	name      string
	dir       bool
	supported bool
}

type (
	audioMsg      []audio.Event
	waveformMsg   []waveform.Event
	tickMsg       time.Time
	dirChangedMsg struct{}
	listingMsg    struct {
		dir     string
		entries []entry
		focus   string // Entry to put the cursor on, if present.
		err     error
	}
)

// Options configures the browser.
type Options struct {
	Dir       string
	FrameRate int // Display and position-poll rate, 60 when zero.
}

// Model is the Bubble Tea model of the browser.
type Model struct {
	app       *app.App
	events    app.Events
	watcher   *DirWatcher // May be nil.
	frameRate int

	dir     string
	entries []entry
	cursor  int
	offset  int
	listErr error

	activeScreen ScreenType
	viewport     viewport.Model
	devices      []audio.DeviceInfo
	devicesErr   error

	width, height int
	ready         bool
}

func New(a *app.App, events app.Events, watcher *DirWatcher, opts Options) Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		dir = opts.Dir
	}
	return Model{
		app:       a,
		events:    events,
		watcher:   watcher,
		frameRate: opts.FrameRate,
		dir:       dir,
	}
}

func (m Model) Init() tea.Cmd {
	m.watch()
	return tea.Batch(
		loadDir(m.dir),
		m.tick(),
		drain(m.events.Audio, func(b []audio.Event) tea.Msg { return audioMsg(b) }),
		drain(m.events.Waveform, func(b []waveform.Event) tea.Msg { return waveformMsg(b) }),
		m.waitChange(),
	)
}

// drain waits for one event and collects whatever else is already queued.
func drain[T any](ch <-chan T, wrap func([]T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		batch := []T{<-ch}
		for len(batch) < maxBatch {
			select {
			case ev := <-ch:
				batch = append(batch, ev)
			default:
				return wrap(batch)
			}
		}
		return wrap(batch)
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	changes := m.watcher.Changes()
	return func() tea.Msg {
		<-changes
		return dirChangedMsg{}
	}
}

func (m Model) watch() {
	if m.watcher == nil {
		return
	}
	if err := m.watcher.Watch(m.dir); err != nil {
		log.Warnf("Browser: Cannot watch %s: %v", m.dir, err)
	}
}

// loadDir lists dir: directories first, then files, hidden entries skipped.
func loadDir(dir string) tea.Cmd {
	return func() tea.Msg {
		des, err := os.ReadDir(dir)
		if err != nil {
			return listingMsg{dir: dir, err: err}
		}
		entries := make([]entry, 0, len(des))
		for _, de := range des {
			name := de.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			entries = append(entries, entry{
				name:      name,
				dir:       de.IsDir(),
				supported: !de.IsDir() && decode.IsSupported(name),
			})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].dir && !entries[j].dir
		})
		return listingMsg{dir: dir, entries: entries}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		return m, nil

	case listingMsg:
		if msg.dir != m.dir {
			return m, nil
		}
		m.applyListing(msg)
		return m, nil

	case dirChangedMsg:
		return m, tea.Batch(loadDir(m.dir), m.waitChange())

	case audioMsg:
		for _, ev := range msg {
			m.app.HandleAudio(ev)
		}
		return m, drain(m.events.Audio, func(b []audio.Event) tea.Msg { return audioMsg(b) })

	case waveformMsg:
		for _, ev := range msg {
			m.app.HandleWaveform(ev)
		}
		return m, drain(m.events.Waveform, func(b []waveform.Event) tea.Msg { return waveformMsg(b) })

	case tickMsg:
		if err := m.app.Tick(); err != nil {
			log.Debugf("Browser: %v", err)
		}
		return m, m.tick()

	case devicesMsg:
		m.devices, m.devicesErr = msg.devices, msg.err
		m.viewport.SetContent(renderDevices(m.devices, m.devicesErr))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		if m.activeScreen == DevicesScreen {
			if key.Matches(msg, keys.Close) {
				m.activeScreen = BrowserScreen
				return m, nil
			}
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.selectCurrent()
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
			m.selectCurrent()
		}
	case key.Matches(msg, keys.Open):
		if e, ok := m.current(); ok {
			if e.dir {
				return m.enter(filepath.Join(m.dir, e.name))
			}
			m.selectCurrent()
		}
	case key.Matches(msg, keys.Back):
		parent := filepath.Dir(m.dir)
		if parent != m.dir {
			return m.enter(parent)
		}
	case key.Matches(msg, keys.Toggle):
		if m.app.Playing() {
			m.app.Stop()
		} else {
			m.selectCurrent()
		}
	case key.Matches(msg, keys.Rewind):
		m.app.Seek(m.app.Position() - seekStep)
	case key.Matches(msg, keys.Forward):
		m.app.Seek(m.app.Position() + seekStep)
	case key.Matches(msg, keys.Devices):
		m.activeScreen = DevicesScreen
		m.viewport.SetContent("Loading devices...")
		return m, fetchDevices
	}
	return m, nil
}

func (m Model) current() (entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return entry{}, false
	}
	return m.entries[m.cursor], true
}

// selectCurrent hands the entry under the cursor to the app. Directories
// and unsupported files select nothing.
func (m *Model) selectCurrent() {
	path := ""
	if e, ok := m.current(); ok && e.supported {
		path = filepath.Join(m.dir, e.name)
	}
	if err := m.app.SelectFile(path); err != nil {
		log.Errorf("Browser: %v", err)
	}
}

func (m Model) enter(dir string) (tea.Model, tea.Cmd) {
	previous := filepath.Base(m.dir)
	m.dir = dir
	m.entries, m.cursor, m.offset, m.listErr = nil, 0, 0, nil
	m.watch()
	if err := m.app.SelectFile(""); err != nil {
		log.Errorf("Browser: %v", err)
	}
	return m, func() tea.Msg {
		msg := loadDir(dir)().(listingMsg)
		// Going up puts the cursor back on the directory we left.
		msg.focus = previous
		return msg
	}
}

// applyListing swaps in a new listing, keeping the cursor on the same name.
func (m *Model) applyListing(msg listingMsg) {
	name := msg.focus
	if e, ok := m.current(); ok {
		name = e.name
	}
	m.entries, m.listErr = msg.entries, msg.err
	m.cursor = min(m.cursor, max(len(m.entries)-1, 0))
	for i, e := range m.entries {
		if e.name == name {
			m.cursor = i
			break
		}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.activeScreen == DevicesScreen {
		title := titleStyle.Render("Output Devices")
		help := infoStyle.Render("↑/↓: Scroll • Esc: Back • q: Quit")
		return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
	}

	width := max(m.width, 40)
	snap := m.app.Snapshot(app.SnapshotOptions{WaveformColumns: width - 2, Points: true})

	panels := m.renderPanels(snap, width)
	listHeight := max(m.height-lipgloss.Height(panels)-4, 3)

	title := titleStyle.Render("samplex") + " " + dimStyle.Render(m.dir)
	help := dimStyle.Render("↑/↓: Browse • Enter: Open • ⌫: Parent • Space: Stop/Play • [/]: Seek • d: Devices • q: Quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.renderList(listHeight),
		panels,
		help,
	)
}

func (m *Model) renderList(height int) string {
	if m.listErr != nil {
		return fmt.Sprintf("Error: %v", m.listErr)
	}
	if len(m.entries) == 0 {
		return dimStyle.Render("(empty)")
	}

	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+height {
		m.offset = m.cursor - height + 1
	}

	var sb strings.Builder
	end := min(m.offset+height, len(m.entries))
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		line := e.name
		switch {
		case e.dir:
			line = dirStyle.Render(line + "/")
		case !e.supported:
			line = dimStyle.Render(line)
		}
		if i == m.cursor {
			line = highlightStyle.Render("▶ ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (m Model) renderPanels(snap app.Snapshot, width int) string {
	var sb strings.Builder

	// Waveform with playhead.
	marker := -1
	if snap.File != "" && len(snap.Waveform.Columns) > 0 {
		marker = int(snap.Position * float32(len(snap.Waveform.Columns)-1))
	}
	status := "stopped"
	switch {
	case snap.File == "":
		status = "no selection"
	case snap.Playing:
		status = fmt.Sprintf("%3.0f%%", snap.Position*100)
	}
	if snap.Waveform.Loading {
		status += fmt.Sprintf("  loading %3.0f%%", snap.Waveform.Progress*100)
	}
	sb.WriteString(panelStyle.Render(snap.File) + "  " + dimStyle.Render(status) + "\n")
	for _, row := range mirrored(snap.Waveform.Columns, waveformHalfHeight, marker) {
		sb.WriteString(" " + row + "\n")
	}

	// Meters.
	meterWidth := max(width-12, 10)
	for i, level := range snap.Levels {
		fmt.Fprintf(&sb, " %-2s %s\n", channelName(i, len(snap.Levels)), meter(level, meterWidth))
	}
	if len(snap.Levels) == 0 {
		fmt.Fprintf(&sb, " %-2s %s\n", "-", meter(0, meterWidth))
	}
	fmt.Fprintf(&sb, " %-2s %s %+.2f\n", "φ", correlationBar(snap.Correlation, meterWidth), snap.Correlation)

	// Spectrum next to the goniometer.
	specWidth := max(width-scopeWidth-4, 10)
	spectrum := strings.Join(bars(resample(snap.Spectrum, specWidth), spectrumHeight, -1, ' '), "\n")
	scope := strings.Join(goniometer(snap.Points, scopeWidth, scopeHeight), "\n")
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Bottom, " "+strings.ReplaceAll(spectrum, "\n", "\n "), "  ", dimStyle.Render(scope)))
	sb.WriteByte('\n')
	if len(snap.Spectrum) > 0 {
		sb.WriteString(" " + dimStyle.Render(axisLabels(snap.SpectrumHz, specWidth)) + "\n")
	}

	tuner := "  -"
	if snap.Tuner.Note != "" {
		tuner = fmt.Sprintf("  %s %+3.0f ct (MIDI %d, %s)", highlightStyle.Render(snap.Tuner.Note), snap.Tuner.Cents, snap.Tuner.MIDI, formatHz(snap.Tuner.Frequency))
	}
	fmt.Fprintf(&sb, " Tuner [%s]%s", snap.Tuner.Strategy, tuner)
	return sb.String()
}

func channelName(i, channels int) string {
	switch {
	case channels == 1:
		return "M"
	case channels == 2:
		return [2]string{"L", "R"}[i]
	default:
		return fmt.Sprint(i + 1)
	}
}

// Run starts the browser on the terminal and blocks until the user quits.
func Run(a *app.App, events app.Events, opts Options) error {
	watcher, err := NewDirWatcher()
	if err != nil {
		log.Warnf("Browser: Directory watching disabled: %v", err)
		watcher = nil
	} else {
		defer watcher.Close()
	}

	p := tea.NewProgram(New(a, events, watcher, opts), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
