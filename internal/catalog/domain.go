// internal/catalog/domain.go
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Book is one catalog entry as stored in the books table.
type Book struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	ISBN            string    `json:"isbn,omitempty" db:"isbn"`
	Publisher       string    `json:"publisher,omitempty" db:"publisher"`
	PublicationYear int       `json:"publication_year,omitempty" db:"publication_year"`
	Category        string    `json:"category,omitempty" db:"category"`
	Description     string    `json:"description,omitempty" db:"description"`
	Quantity        int       `json:"quantity" db:"quantity"`
	Available       int       `json:"available" db:"available"`
}

// BookInput is the form data for a book: every field except the ID.
type BookInput struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn,omitempty"`
	Publisher       string `json:"publisher,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	Category        string `json:"category,omitempty"`
	Description     string `json:"description,omitempty"`
	Quantity        int    `json:"quantity"`
	Available       int    `json:"available"`
}

// SuggestedCategories are offered by the forms. Any other label is accepted.
var SuggestedCategories = []string{
	"Fiction",
	"Non-Fiction",
	"Science Fiction",
	"Fantasy",
	"Romance",
	"Mystery",
	"Biography",
	"History",
	"Science",
	"Adventure",
	"Historical Fiction",
}

// NewBookInput returns the defaults of an empty create form.
func NewBookInput(now time.Time) BookInput {
	return BookInput{
		PublicationYear: now.Year(),
		Quantity:        1,
		Available:       1,
	}
}

// Input returns the mutable fields of b.
func (b Book) Input() BookInput {
	return BookInput{
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Category:        b.Category,
		Description:     b.Description,
		Quantity:        b.Quantity,
		Available:       b.Available,
	}
}

// InStock reports whether at least one copy can be lent.
func (b Book) InStock() bool {
	return b.Available > 0
}

// AvailabilityLabel renders the copies line shown on cards and in details.
func (b Book) AvailabilityLabel() string {
	return fmt.Sprintf("%d of %d available", b.Available, b.Quantity)
}

// WithID builds the Book the store holds for this input.
func (in BookInput) WithID(id uuid.UUID) Book {
	return Book{
		ID:              id,
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Publisher:       in.Publisher,
		PublicationYear: in.PublicationYear,
		Category:        in.Category,
		Description:     in.Description,
		Quantity:        in.Quantity,
		Available:       in.Available,
	}
}

// Normalize trims surrounding whitespace from the text fields.
func (in BookInput) Normalize() BookInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.ISBN = strings.TrimSpace(in.ISBN)
	in.Publisher = strings.TrimSpace(in.Publisher)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// Validate applies the form rules. Copies available may exceed the quantity
// owned; the two fields are checked independently.
func (in BookInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required.Error("title is required")),
		validation.Field(&in.Author, validation.Required.Error("author is required")),
		validation.Field(&in.Quantity,
			validation.Required.Error("quantity must be at least 1"),
			validation.Min(1).Error("quantity must be at least 1"),
		),
		validation.Field(&in.Available, validation.Min(0).Error("available copies cannot be negative")),
		validation.Field(&in.PublicationYear, validation.Min(0).Error("publication year cannot be negative")),
	)
}

// Journal event types.
const (
	EventBookAdded   = "BookAdded"
	EventBookUpdated = "BookUpdated"
	EventBookRemoved = "BookRemoved"
)

// Event is one entry of a store's mutation journal.
type Event struct {
	ID        int64           `json:"id" db:"id"`
	BookID    uuid.UUID       `json:"book_id" db:"book_id"`
	Type      string          `json:"type" db:"event_type"`
	Data      json.RawMessage `json:"data" db:"event_data"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// BookRemovedEvent is the payload journaled when a book is deleted.
type BookRemovedEvent struct {
	ID uuid.UUID `json:"id"`
}
