package tui

import (
	"context"
	"testing"

	"librarymanager/internal/catalog"
	"librarymanager/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := storage.NewMemory(
		catalog.Book{Title: "Dune", Author: "Frank Herbert", Category: "Science Fiction", Quantity: 2, Available: 1},
		catalog.Book{Title: "Emma", Author: "Jane Austen", Category: "Romance", Quantity: 1, Available: 0},
	)
	bridge := NewBridge()
	view := catalog.NewView()
	ctrl := catalog.NewController(store, bridge, nil)
	coord := catalog.NewCoordinator(store, ctrl,
		catalog.WithView(view),
		catalog.WithNotifier(bridge),
		catalog.WithConfirmer(bridge),
	)

	m := New(ctx, ctrl, coord, view, bridge)
	m, _ = update(m, m.refresh()())
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = update(m, key(string(r)))
	}
	return m
}

func TestModel_ListsCatalog(t *testing.T) {
	m := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, "2 books found")
	assert.Contains(t, out, "All Categories")
	assert.Contains(t, out, "1 of 2 available")
	assert.Contains(t, out, "0 of 1 available")
}

func TestModel_CategoryCycling(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, key("tab"))
	assert.Equal(t, "Romance", m.category)
	assert.Len(t, m.visible(), 1)

	m, _ = update(m, key("tab"))
	assert.Equal(t, "Science Fiction", m.category)

	m, _ = update(m, key("tab"))
	assert.Equal(t, catalog.AllCategories, m.category)

	m, _ = update(m, key("shift+tab"))
	assert.Equal(t, "Science Fiction", m.category)
}

func TestModel_Search(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, key("/"))
	require.True(t, m.searching)
	m = typeText(m, "austen")
	m, _ = update(m, key("enter"))

	assert.False(t, m.searching)
	books := m.visible()
	require.Len(t, books, 1)
	assert.Equal(t, "Emma", books[0].Title)
	assert.Contains(t, m.View(), "1 book found")

	m, _ = update(m, key("tab"))
	m, _ = update(m, key("tab"))
	assert.Contains(t, m.View(), "0 books found")
	assert.Contains(t, m.View(), "Try adjusting your search or filters")
}

func TestModel_DetailsAndClose(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, key("enter"))
	assert.Equal(t, catalog.DetailsOpen, m.view.State())
	assert.Contains(t, m.View(), "Frank Herbert")

	m, _ = update(m, key("esc"))
	assert.Equal(t, catalog.Closed, m.view.State())
}

func TestModel_CreateFormValidation(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, key("a"))
	require.Equal(t, catalog.CreateOpen, m.view.State())
	require.NotNil(t, m.form)
	assert.Equal(t, "1", m.form.inputs[fieldQuantity].Value())

	m, cmd := update(m, key("ctrl+s"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.form.err, "title is required")
	assert.Contains(t, m.form.err, "author is required")
	assert.Equal(t, catalog.CreateOpen, m.view.State())
}

func TestModel_CreateBook(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, key("a"))
	m = typeText(m, "Beloved")
	m, _ = update(m, key("tab"))
	m = typeText(m, "Toni Morrison")

	m, cmd := update(m, key("ctrl+s"))
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	m, _ = update(m, cmd())
	assert.False(t, m.busy)
	assert.Equal(t, catalog.Closed, m.view.State())
	assert.Nil(t, m.form)
	assert.Len(t, m.visible(), 3)

	m, _ = update(m, m.bridge.waitForNote())
	require.NotNil(t, m.toast)
	assert.Equal(t, "Book added successfully", m.toast.Message)
}

func TestModel_DeleteAsksFirst(t *testing.T) {
	m := newTestModel(t)
	target, ok := m.selected()
	require.True(t, ok)

	m, cmd := update(m, key("d"))
	require.NotNil(t, cmd)

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	m, _ = update(m, m.bridge.waitForConfirm())
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), catalog.DeletePrompt)

	m, _ = update(m, key("y"))
	assert.Nil(t, m.confirm)

	m, _ = update(m, <-done)
	_, found := m.catalog.Lookup(target.ID)
	assert.False(t, found)
	assert.Len(t, m.visible(), 1)
}

func TestModel_DeclinedDeleteKeepsBook(t *testing.T) {
	m := newTestModel(t)
	target, _ := m.selected()

	m, cmd := update(m, key("d"))
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	m, _ = update(m, m.bridge.waitForConfirm())
	m, _ = update(m, key("n"))
	m, _ = update(m, <-done)

	_, found := m.catalog.Lookup(target.ID)
	assert.True(t, found)
	assert.Nil(t, m.toast)
}

func TestModel_ToastExpires(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(m, noteMsg(catalog.Failure("Failed to fetch books: offline")))
	assert.Contains(t, m.View(), "Error: Failed to fetch books: offline")

	m, _ = update(m, noteMsg(catalog.Success("Book updated successfully")))
	m, _ = update(m, toastExpiredMsg{seq: 1})
	require.NotNil(t, m.toast, "a stale expiry keeps the newer toast")

	m, _ = update(m, toastExpiredMsg{seq: 2})
	assert.Nil(t, m.toast)
}
