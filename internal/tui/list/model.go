package listview

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders an item. selected marks the highlighted item.
type RenderFunc[T any] func(item T, selected bool, width int) string

// KeyMap holds the navigation bindings.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	PageUp key.Binding
	PageDn key.Binding
	Home   key.Binding
	End    key.Binding
}

// DefaultKeyMap returns arrow, page and vim-style bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
		PageUp: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDn: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Home:   key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home", "first")),
		End:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "last")),
	}
}

// Model is a list that shows a window of items around the selection.
type Model[T any] struct {
	items    []T
	render   RenderFunc[T]
	keys     KeyMap
	selected int

	// window is the number of items shown at once.
	window int
	width  int
	from   int
}

// New creates a list showing window items at a time.
func New[T any](items []T, window, width int, render RenderFunc[T]) *Model[T] {
	m := &Model[T]{
		items:  items,
		render: render,
		keys:   DefaultKeyMap(),
		window: max(window, 1),
		width:  width,
	}
	m.scroll()
	return m
}

// Init implements tea.Model.
func (m *Model[T]) Init() tea.Cmd {
	return nil
}

// Update handles navigation keys.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || len(m.items) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Up):
		m.Move(-1)
	case key.Matches(km, m.keys.Down):
		m.Move(1)
	case key.Matches(km, m.keys.PageUp):
		m.Move(-m.window)
	case key.Matches(km, m.keys.PageDn):
		m.Move(m.window)
	case key.Matches(km, m.keys.Home):
		m.Select(0)
	case key.Matches(km, m.keys.End):
		m.Select(len(m.items) - 1)
	}
	return m, nil
}

// View renders the visible window.
func (m *Model[T]) View() string {
	if len(m.items) == 0 {
		return ""
	}
	rows := make([]string, 0, m.window)
	for i := m.from; i < m.to(); i++ {
		rows = append(rows, m.render(m.items[i], i == m.selected, m.width))
	}
	return strings.Join(rows, "\n\n")
}

// SetItems replaces the items and resets the selection.
func (m *Model[T]) SetItems(items []T) {
	m.items = items
	m.selected = 0
	m.from = 0
	m.scroll()
}

// SetSize changes the window and width.
func (m *Model[T]) SetSize(window, width int) {
	m.window = max(window, 1)
	m.width = width
	m.scroll()
}

// Move shifts the selection by delta, clamped to the list.
func (m *Model[T]) Move(delta int) {
	m.Select(m.selected + delta)
}

// Select sets the selection, clamped to the list.
func (m *Model[T]) Select(index int) {
	if len(m.items) == 0 {
		m.selected = 0
		return
	}
	m.selected = min(max(index, 0), len(m.items)-1)
	m.scroll()
}

// Len returns the number of items.
func (m *Model[T]) Len() int {
	return len(m.items)
}

// Selected returns the selected index.
func (m *Model[T]) Selected() int {
	return m.selected
}

// SelectedItem returns the selected item, or nil when empty.
func (m *Model[T]) SelectedItem() *T {
	if len(m.items) == 0 {
		return nil
	}
	return &m.items[m.selected]
}

// VisibleRange returns the [from, to) indexes currently shown.
func (m *Model[T]) VisibleRange() (int, int) {
	return m.from, m.to()
}

// KeyMap returns the bindings, for help rendering.
func (m *Model[T]) KeyMap() KeyMap {
	return m.keys
}

// scroll keeps the selection inside the window, moving the window as little as possible.
func (m *Model[T]) scroll() {
	switch {
	case m.selected < m.from:
		m.from = m.selected
	case m.selected >= m.from+m.window:
		m.from = m.selected - m.window + 1
	}
	m.from = min(m.from, max(len(m.items)-m.window, 0))
	m.from = max(m.from, 0)
}

func (m *Model[T]) to() int {
	return min(m.from+m.window, len(m.items))
}
