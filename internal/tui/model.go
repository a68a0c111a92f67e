// internal/tui/model.go
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"librarymanager/internal/catalog"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

const (
	allCategoriesLabel = "All Categories"
	toastDuration      = 4 * time.Second
)

type (
	refreshedMsg    struct{ err error }
	mutationDoneMsg struct{ err error }
	toastExpiredMsg struct{ seq int }
)

// Model is the catalog browser: a search field, a category selector, the
// filtered list and the create/edit/details dialogs tracked by a View.
type Model struct {
	ctx     context.Context
	catalog *catalog.Controller
	coord   *catalog.Coordinator
	view    *catalog.View
	bridge  *Bridge

	search    textinput.Model
	searching bool
	category  string
	cursor    int

	form    *form
	confirm *confirmRequest
	busy    bool

	toast    *catalog.Notification
	toastSeq int

	width int
}

// New builds the browser. coord must share view and use bridge as its
// notifier and confirmer.
func New(ctx context.Context, c *catalog.Controller, coord *catalog.Coordinator, view *catalog.View, bridge *Bridge) Model {
	search := textinput.New()
	search.Placeholder = "Search by title, author or ISBN..."
	search.Prompt = "/ "
	search.CharLimit = 128

	return Model{
		ctx:      ctx,
		catalog:  c,
		coord:    coord,
		view:     view,
		bridge:   bridge,
		search:   search,
		category: catalog.AllCategories,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.bridge.waitForNote, m.bridge.waitForConfirm)
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.catalog.Refresh(m.ctx)}
	}
}

// visible is the list shown under the current search and category.
func (m Model) visible() []catalog.Book {
	return m.catalog.Visible(m.search.Value(), m.category)
}

func (m Model) selected() (catalog.Book, bool) {
	books := m.visible()
	if m.cursor < 0 || m.cursor >= len(books) {
		return catalog.Book{}, false
	}
	return books[m.cursor], true
}

// categoryOptions lists the selector values, AllCategories first.
func (m Model) categoryOptions() []string {
	return append([]string{catalog.AllCategories}, m.catalog.Categories()...)
}

func (m *Model) cycleCategory(delta int) {
	options := m.categoryOptions()
	idx := 0
	for i, c := range options {
		if c == m.category {
			idx = i
		}
	}
	idx = (idx + delta + len(options)) % len(options)
	m.category = options[idx]
	m.cursor = 0
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case refreshedMsg:
		m.busy = false
		if !containsCategory(m.categoryOptions(), m.category) {
			m.category = catalog.AllCategories
		}
		m.clampCursor()
		return m, nil

	case mutationDoneMsg:
		m.busy = false
		if m.view.State() == catalog.Closed {
			m.form = nil
		}
		m.clampCursor()
		return m, nil

	case noteMsg:
		n := catalog.Notification(msg)
		m.toast = &n
		m.toastSeq++
		seq := m.toastSeq
		return m, tea.Batch(
			m.bridge.waitForNote,
			tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} }),
		)

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case confirmMsg:
		req := confirmRequest(msg)
		m.confirm = &req
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	if m.form != nil {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch m.view.State() {
	case catalog.CreateOpen, catalog.EditOpen:
		return m.handleFormKey(msg)
	case catalog.DetailsOpen:
		return m.handleDetailsKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirm.reply <- true
	case "n", "N", "esc":
		m.confirm.reply <- false
	default:
		return m, nil
	}
	m.confirm = nil
	return m, m.bridge.waitForConfirm
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.clampCursor()
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "tab":
		m.cycleCategory(1)
	case "shift+tab":
		m.cycleCategory(-1)
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case "enter":
		if b, ok := m.selected(); ok {
			m.view.OpenDetails(b)
		}
	case "a":
		m.view.OpenCreate()
		m.form = newForm(catalog.NewBookInput(time.Now()))
	case "e":
		if b, ok := m.selected(); ok {
			m.openEdit(b)
		}
	case "d":
		if b, ok := m.selected(); ok {
			return m.startDelete(b.ID)
		}
	case "r":
		m.busy = true
		return m, m.refresh()
	}
	return m, nil
}

func (m Model) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b, _ := m.view.Selected()
	switch msg.String() {
	case "esc", "q":
		m.view.Close()
	case "e":
		m.openEdit(b)
	case "d":
		return m.startDelete(b.ID)
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.view.Close()
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.view.Close()
		m.form = nil
		return m, nil
	case "tab", "down":
		return m, m.form.move(1)
	case "shift+tab", "up":
		return m, m.form.move(-1)
	case "ctrl+s":
		return m.submit()
	}
	return m, m.form.update(msg)
}

func (m *Model) openEdit(b catalog.Book) {
	m.view.OpenEdit(b)
	m.form = newForm(b.Input())
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	in, err := m.form.input()
	if err != nil {
		m.form.err = err.Error()
		return m, nil
	}
	m.form.err = ""
	m.busy = true

	if m.view.State() == catalog.CreateOpen {
		return m, func() tea.Msg {
			_, err := m.coord.Create(m.ctx, in)
			return mutationDoneMsg{err: err}
		}
	}
	return m, func() tea.Msg {
		return mutationDoneMsg{err: m.coord.UpdateSelected(m.ctx, in)}
	}
}

func (m Model) startDelete(id uuid.UUID) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	return m, func() tea.Msg {
		_, err := m.coord.Delete(m.ctx, id)
		return mutationDoneMsg{err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Library Manager"))
	b.WriteString("\n\n")

	switch m.view.State() {
	case catalog.CreateOpen:
		if m.form != nil {
			b.WriteString(m.form.view("Add New Book"))
		}
	case catalog.EditOpen:
		if m.form != nil {
			b.WriteString(m.form.view("Edit Book"))
		}
	case catalog.DetailsOpen:
		book, _ := m.view.Selected()
		b.WriteString(detailsView(book))
	default:
		b.WriteString(m.listView())
	}

	if m.confirm != nil {
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render(m.confirm.prompt + "  (y/n)"))
	}

	if m.toast != nil {
		b.WriteString("\n\n")
		style := successToastStyle
		if m.toast.Level == catalog.LevelError {
			style = errorToastStyle
		}
		b.WriteString(style.Render(m.toast.Title + ": " + m.toast.Message))
	}

	b.WriteString("\n")
	return b.String()
}

func (m Model) listView() string {
	var b strings.Builder

	b.WriteString(m.search.View())
	b.WriteString("\n")

	label := m.category
	if label == catalog.AllCategories {
		label = allCategoriesLabel
	}
	b.WriteString(mutedStyle.Render("Category: "))
	b.WriteString(categoryStyle.Render(label))
	b.WriteString("\n\n")

	books := m.visible()
	b.WriteString(mutedStyle.Render(catalog.CountLabel(len(books))))
	if m.busy {
		b.WriteString(mutedStyle.Render("  (working...)"))
	}
	b.WriteString("\n\n")

	if len(books) == 0 {
		b.WriteString(mutedStyle.Render("No books found. "))
		b.WriteString(catalog.EmptyStateMessage(m.search.Value(), m.category))
		b.WriteString("\n")
	}

	for i, book := range books {
		cursor := "  "
		title := book.Title
		if i == m.cursor {
			cursor = "> "
			title = selectedStyle.Render(title)
		}
		stock := inStockStyle.Render(book.AvailabilityLabel())
		if !book.InStock() {
			stock = outOfStockStyle.Render(book.AvailabilityLabel())
		}
		fmt.Fprintf(&b, "%s%s %s  %s", cursor, title, mutedStyle.Render("by "+book.Author), stock)
		if book.Category != "" {
			b.WriteString("  " + mutedStyle.Render("["+book.Category+"]"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("/ search · tab category · enter details · a add · e edit · d delete · r refresh · q quit"))
	return b.String()
}

func detailsView(book catalog.Book) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(book.Title))
	b.WriteString("\n")
	b.WriteString("by " + book.Author)
	b.WriteString("\n\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render(fmt.Sprintf("%-18s", label)), value)
	}
	row("ISBN", book.ISBN)
	row("Publisher", book.Publisher)
	if book.PublicationYear != 0 {
		row("Publication Year", fmt.Sprint(book.PublicationYear))
	}
	row("Category", book.Category)
	row("Availability", book.AvailabilityLabel())
	if book.Description != "" {
		b.WriteString("\n")
		b.WriteString(book.Description)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("e edit · d delete · esc close"))
	return panelStyle.Render(b.String())
}

func containsCategory(options []string, c string) bool {
	for _, o := range options {
		if o == c {
			return true
		}
	}
	return false
}
