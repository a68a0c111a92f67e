package catalog

import "sync"

// ViewState says which dialog, if any, the user has open.
type ViewState int

const (
	Closed ViewState = iota
	CreateOpen
	EditOpen
	DetailsOpen
)

func (s ViewState) String() string {
	switch s {
	case CreateOpen:
		return "create"
	case EditOpen:
		return "edit"
	case DetailsOpen:
		return "details"
	default:
		return "closed"
	}
}

// View is the dialog state machine of an interactive surface. Exactly one
// state holds at a time; EditOpen and DetailsOpen carry the selected book.
// A nil *View ignores every transition and always reports Closed.
type View struct {
	mu       sync.Mutex
	state    ViewState
	selected Book
}

// NewView returns a view in the Closed state.
func NewView() *View {
	return &View{}
}

// OpenCreate shows the empty create form.
func (v *View) OpenCreate() {
	v.set(CreateOpen, Book{})
}

// OpenEdit shows the edit form for b.
func (v *View) OpenEdit(b Book) {
	v.set(EditOpen, b)
}

// OpenDetails shows the details of b.
func (v *View) OpenDetails(b Book) {
	v.set(DetailsOpen, b)
}

// Close hides any dialog and clears the selection.
func (v *View) Close() {
	v.set(Closed, Book{})
}

func (v *View) set(state ViewState, b Book) {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = state
	v.selected = b
}

// State returns the current state.
func (v *View) State() ViewState {
	if v == nil {
		return Closed
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Selected returns the book carried by EditOpen or DetailsOpen.
func (v *View) Selected() (Book, bool) {
	if v == nil {
		return Book{}, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != EditOpen && v.state != DetailsOpen {
		return Book{}, false
	}
	return v.selected, true
}
