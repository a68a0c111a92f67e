package storage

import (
	"context"
	"encoding/json"
	"testing"

	"librarymanager/internal/catalog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ListOrdersByTitle(t *testing.T) {
	m := NewMemory(
		catalog.Book{Title: "Emma", Author: "Jane Austen", Quantity: 1},
		catalog.Book{Title: "Dune", Author: "Frank Herbert", Quantity: 1},
		catalog.Book{Title: "Beloved", Author: "Toni Morrison", Quantity: 1},
	)

	books, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 3)

	assert.Equal(t, "Beloved", books[0].Title)
	assert.Equal(t, "Dune", books[1].Title)
	assert.Equal(t, "Emma", books[2].Title)
	for _, b := range books {
		assert.NotEqual(t, uuid.Nil, b.ID)
	}
}

func TestMemory_InsertAssignsID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	book, err := m.Insert(ctx, catalog.BookInput{Title: "Dune", Author: "Frank Herbert", Quantity: 2, Available: 2})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, book.ID)

	books, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, book, books[0])
}

func TestMemory_UpdateReplacesFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	book, err := m.Insert(ctx, catalog.BookInput{Title: "Dune", Author: "Frank Herbert", Category: "Fiction", Quantity: 1, Available: 1})
	require.NoError(t, err)

	in := book.Input()
	in.Category = ""
	in.Available = 0
	require.NoError(t, m.Update(ctx, book.ID, in))

	books, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, in.WithID(book.ID), books[0])
}

func TestMemory_MissingIDIsNotAnError(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := uuid.New()

	assert.NoError(t, m.Update(ctx, id, catalog.BookInput{Title: "x", Author: "y", Quantity: 1}))
	assert.NoError(t, m.Delete(ctx, id))

	events, err := m.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMemory_HistoryJournalsMutations(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	book, err := m.Insert(ctx, catalog.BookInput{Title: "Emma", Author: "Jane Austen", Quantity: 1, Available: 1})
	require.NoError(t, err)

	in := book.Input()
	in.Quantity = 3
	require.NoError(t, m.Update(ctx, book.ID, in))
	require.NoError(t, m.Delete(ctx, book.ID))

	events, err := m.History(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, catalog.EventBookAdded, events[0].Type)
	assert.Equal(t, catalog.EventBookUpdated, events[1].Type)
	assert.Equal(t, catalog.EventBookRemoved, events[2].Type)
	assert.Less(t, events[0].ID, events[1].ID)
	assert.Less(t, events[1].ID, events[2].ID)

	var updated catalog.Book
	require.NoError(t, json.Unmarshal(events[1].Data, &updated))
	assert.Equal(t, 3, updated.Quantity)

	var removed catalog.BookRemovedEvent
	require.NoError(t, json.Unmarshal(events[2].Data, &removed))
	assert.Equal(t, book.ID, removed.ID)
}

func TestMemory_HonoursCancelledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
