package tui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"librarymanager/internal/catalog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldTitle = iota
	fieldAuthor
	fieldISBN
	fieldPublisher
	fieldYear
	fieldCategory
	fieldDescription
	fieldQuantity
	fieldAvailable
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Title *", "Author *", "ISBN", "Publisher", "Publication Year",
	"Category", "Description", "Quantity *", "Available",
}

// form edits one BookInput. Numbers are kept as text until submit.
type form struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newForm(in catalog.BookInput) *form {
	f := &form{}
	values := [fieldCount]string{
		in.Title, in.Author, in.ISBN, in.Publisher, itoa(in.PublicationYear),
		in.Category, in.Description, strconv.Itoa(in.Quantity), strconv.Itoa(in.Available),
	}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.SetValue(values[i])
		f.inputs[i] = ti
	}
	f.inputs[fieldCategory].Placeholder = strings.Join(catalog.SuggestedCategories[:3], ", ") + ", ..."
	f.inputs[0].Focus()
	return f
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func (f *form) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// input parses and validates the form. The error is shown under the form.
func (f *form) input() (catalog.BookInput, error) {
	number := func(i int, name string) (int, error) {
		s := strings.TrimSpace(f.inputs[i].Value())
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}
		return n, nil
	}

	year, err := number(fieldYear, "publication year")
	if err != nil {
		return catalog.BookInput{}, err
	}
	quantity, err := number(fieldQuantity, "quantity")
	if err != nil {
		return catalog.BookInput{}, err
	}
	available, err := number(fieldAvailable, "available")
	if err != nil {
		return catalog.BookInput{}, err
	}

	in := catalog.BookInput{
		Title:           f.inputs[fieldTitle].Value(),
		Author:          f.inputs[fieldAuthor].Value(),
		ISBN:            f.inputs[fieldISBN].Value(),
		Publisher:       f.inputs[fieldPublisher].Value(),
		PublicationYear: year,
		Category:        f.inputs[fieldCategory].Value(),
		Description:     f.inputs[fieldDescription].Value(),
		Quantity:        quantity,
		Available:       available,
	}.Normalize()

	if err := in.Validate(); err != nil {
		return catalog.BookInput{}, flatten(err)
	}
	return in, nil
}

// flatten joins ozzo field errors into one sorted line.
func flatten(err error) error {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return err
	}
	msgs := make([]string, 0, len(fields))
	for _, e := range fields {
		msgs = append(msgs, e.Error())
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}

func (f *form) view(heading string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(heading))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		if i == f.focus {
			b.WriteString(selectedStyle.Render(fmt.Sprintf("> %-18s", fieldLabels[i])))
		} else {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  %-18s", fieldLabels[i])))
		}
		b.WriteString(" ")
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(formErrorStyle.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("tab/shift+tab move · ctrl+s save · esc cancel"))
	return panelStyle.Render(b.String())
}
