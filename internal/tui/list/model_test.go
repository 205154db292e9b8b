package listview

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderInt(item int, selected bool, _ int) string {
	if selected {
		return fmt.Sprintf("> %d", item)
	}
	return fmt.Sprintf("  %d", item)
}

func items(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func press(m *Model[int], keyType tea.KeyType) {
	m.Update(tea.KeyMsg{Type: keyType})
}

func TestNavigation(t *testing.T) {
	m := New(items(10), 3, 40, renderInt)

	press(m, tea.KeyDown)
	press(m, tea.KeyDown)
	assert.Equal(t, 2, m.Selected())
	from, to := m.VisibleRange()
	assert.Equal(t, [2]int{0, 3}, [2]int{from, to})

	press(m, tea.KeyDown)
	from, to = m.VisibleRange()
	assert.Equal(t, [2]int{1, 4}, [2]int{from, to}, "window follows the selection")

	press(m, tea.KeyEnd)
	assert.Equal(t, 9, m.Selected())
	from, to = m.VisibleRange()
	assert.Equal(t, [2]int{7, 10}, [2]int{from, to})

	press(m, tea.KeyHome)
	assert.Equal(t, 0, m.Selected())

	press(m, tea.KeyUp)
	assert.Equal(t, 0, m.Selected(), "clamped at the top")

	press(m, tea.KeyPgDown)
	assert.Equal(t, 3, m.Selected())
}

func TestVimKeys(t *testing.T) {
	m := New(items(5), 2, 40, renderInt)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, m.Selected())
}

func TestView(t *testing.T) {
	m := New(items(5), 2, 40, renderInt)
	m.Select(1)
	view := m.View()
	assert.Equal(t, "  0\n\n> 1", view)
	assert.False(t, strings.Contains(view, "2"))
}

func TestEmpty(t *testing.T) {
	m := New[int](nil, 3, 40, renderInt)
	press(m, tea.KeyDown)
	assert.Empty(t, m.View())
	assert.Nil(t, m.SelectedItem())
	assert.Zero(t, m.Len())
}

func TestSetItemsResetsSelection(t *testing.T) {
	m := New(items(10), 3, 40, renderInt)
	m.Select(8)
	m.SetItems(items(2))

	assert.Equal(t, 0, m.Selected())
	require.NotNil(t, m.SelectedItem())
	assert.Equal(t, 0, *m.SelectedItem())
	from, to := m.VisibleRange()
	assert.Equal(t, [2]int{0, 2}, [2]int{from, to})
}

func TestSetSize(t *testing.T) {
	m := New(items(10), 5, 40, renderInt)
	m.Select(9)
	m.SetSize(0, 20)
	from, to := m.VisibleRange()
	assert.Equal(t, [2]int{9, 10}, [2]int{from, to})
}
