// SPDX-License-Identifier: MIT
package tui

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"samplex/internal/app"
	"samplex/internal/config"
)

type player struct{ calls []string }

func (p *player) Play(path string) error    { p.calls = append(p.calls, "play "+filepath.Base(path)); return nil }
func (p *player) Stop() error               { p.calls = append(p.calls, "stop"); return nil }
func (p *player) QueryPosition() error      { return nil }
func (p *player) SetPosition(float32) error { p.calls = append(p.calls, "seek"); return nil }

type loader struct{}

func (loader) LoadFile(string, uint64) error { return nil }
func (loader) StopLoading() error            { return nil }

// newBrowser lays out:
//
//	drums/ loops/ a.wav b.txt
func newBrowser(t *testing.T) (Model, *player, string) {
	t.Helper()
	dir := t.TempDir()
	for _, d := range []string{"drums", "loops", ".hidden"} {
		if err := os.Mkdir(filepath.Join(dir, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range []string{"a.wav", "b.txt", "loops/c.flac"} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	an, err := app.NewAnalyzers(config.Default().Analysis)
	if err != nil {
		t.Fatal(err)
	}
	p := &player{}
	m := New(app.New(p, loader{}, an), app.Events{}, nil, Options{Dir: dir})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	m = update(t, m, loadDir(m.dir)())
	return m, p, dir
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func names(entries []entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.name)
	}
	return out
}

func TestListingOrder(t *testing.T) {
	m, _, _ := newBrowser(t)
	want := []string{"drums", "loops", "a.wav", "b.txt"}
	if got := names(m.entries); !slices.Equal(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	if !m.entries[2].supported || m.entries[3].supported {
		t.Error("supported flags wrong")
	}
}

func TestCursorSelectsFiles(t *testing.T) {
	m, p, _ := newBrowser(t)
	m, _ = press(t, m, tea.KeyDown) // loops/
	m, _ = press(t, m, tea.KeyDown) // a.wav
	m, _ = press(t, m, tea.KeyDown) // b.txt
	m, _ = press(t, m, tea.KeyDown) // stays on b.txt

	want := []string{"stop", "play a.wav", "stop"}
	if !slices.Equal(p.calls, want) {
		t.Errorf("calls = %v, want %v", p.calls, want)
	}
	if m.cursor != 3 {
		t.Errorf("cursor = %d, want 3", m.cursor)
	}
}

func TestToggle(t *testing.T) {
	m, p, _ := newBrowser(t)
	m.cursor = 2
	m, _ = press(t, m, tea.KeySpace) // Nothing playing: start a.wav.
	m, _ = press(t, m, tea.KeySpace) // Playing: stop.
	if !slices.Equal(p.calls, []string{"play a.wav", "stop"}) {
		t.Errorf("calls = %v", p.calls)
	}
}

func TestEnterAndLeaveDirectory(t *testing.T) {
	m, _, dir := newBrowser(t)
	m, _ = press(t, m, tea.KeyDown) // loops/

	m, cmd := press(t, m, tea.KeyEnter)
	if m.dir != filepath.Join(dir, "loops") {
		t.Fatalf("dir = %s", m.dir)
	}
	m = update(t, m, cmd())
	if got := names(m.entries); !slices.Equal(got, []string{"c.flac"}) {
		t.Fatalf("entries in loops = %v", got)
	}

	m, cmd = press(t, m, tea.KeyBackspace)
	m = update(t, m, cmd())
	if m.dir != dir || m.cursor != 1 {
		t.Errorf("back in %s with cursor %d, want %s with cursor on loops", m.dir, m.cursor, dir)
	}
}

func TestStaleListingIgnored(t *testing.T) {
	m, _, dir := newBrowser(t)
	stale := listingMsg{dir: filepath.Join(dir, "drums"), entries: []entry{{name: "x.wav"}}}
	m = update(t, m, stale)
	if len(m.entries) != 4 {
		t.Error("listing of another directory applied")
	}
}

func TestRefreshKeepsCursorOnName(t *testing.T) {
	m, _, dir := newBrowser(t)
	m.cursor = 2 // a.wav
	os.Mkdir(filepath.Join(dir, "new"), 0o755)
	m = update(t, m, loadDir(m.dir)())
	if m.entries[m.cursor].name != "a.wav" {
		t.Errorf("cursor moved to %s", m.entries[m.cursor].name)
	}
}

func TestView(t *testing.T) {
	m, _, _ := newBrowser(t)
	m.cursor = 2
	m, _ = press(t, m, tea.KeySpace)
	view := m.View()
	for _, want := range []string{"samplex", "loops/", "a.wav", "Tuner [hps]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m = next.(Model)
	if cmd == nil || m.activeScreen != DevicesScreen {
		t.Fatal("d did not open the devices screen")
	}
	m = update(t, m, devicesMsg{err: os.ErrNotExist})
	if !strings.Contains(m.View(), "Cannot list devices") {
		t.Error("device error not shown")
	}
}
