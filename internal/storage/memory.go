package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"librarymanager/internal/catalog"

	"github.com/google/uuid"
)

// Memory is an in-process store. It keeps the same journal as Postgres.
type Memory struct {
	mu     sync.RWMutex
	books  map[uuid.UUID]catalog.Book
	events []catalog.Event
	nextID int64
}

// NewMemory returns a store holding the given books. Books without an ID get one.
func NewMemory(seed ...catalog.Book) *Memory {
	m := &Memory{books: make(map[uuid.UUID]catalog.Book, len(seed))}
	for _, b := range seed {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		m.books[b.ID] = b
	}
	return m
}

func (m *Memory) List(ctx context.Context) ([]catalog.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	books := make([]catalog.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b)
	}
	sort.SliceStable(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ID.String() < books[j].ID.String()
	})
	return books, nil
}

func (m *Memory) Insert(ctx context.Context, in catalog.BookInput) (catalog.Book, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Book{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	book := in.WithID(uuid.New())
	m.books[book.ID] = book
	m.record(book.ID, catalog.EventBookAdded, book)
	return book, nil
}

func (m *Memory) Update(ctx context.Context, id uuid.UUID, in catalog.BookInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return nil
	}
	book := in.WithID(id)
	m.books[id] = book
	m.record(id, catalog.EventBookUpdated, book)
	return nil
}

func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return nil
	}
	delete(m.books, id)
	m.record(id, catalog.EventBookRemoved, catalog.BookRemovedEvent{ID: id})
	return nil
}

// History returns the journal entries of one book, oldest first.
func (m *Memory) History(ctx context.Context, id uuid.UUID) ([]catalog.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []catalog.Event
	for _, e := range m.events {
		if e.BookID == id {
			events = append(events, e)
		}
	}
	return events, nil
}

// caller holds m.mu
func (m *Memory) record(id uuid.UUID, eventType string, payload any) {
	data, err := marshalEvent(payload)
	if err != nil {
		return
	}
	m.nextID++
	m.events = append(m.events, catalog.Event{
		ID:        m.nextID,
		BookID:    id,
		Type:      eventType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	})
}
