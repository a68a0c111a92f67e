package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"librarymanager/internal/catalog"
	"librarymanager/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	sent []catalog.Notification
}

func (r *recorder) Notify(_ context.Context, n catalog.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recorder) all() []catalog.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]catalog.Notification(nil), r.sent...)
}

func seedBooks() []catalog.Book {
	return []catalog.Book{
		{Title: "Dune", Author: "Frank Herbert", Category: "Science Fiction", Quantity: 2, Available: 1},
		{Title: "Emma", Author: "Jane Austen", Category: "Romance", Quantity: 1, Available: 1},
		{Title: "Untitled", Author: "Anonymous", Quantity: 1},
	}
}

func TestController_StartsEmpty(t *testing.T) {
	c := catalog.NewController(storage.NewMemory(seedBooks()...), &recorder{}, nil)

	assert.Empty(t, c.Books())
	assert.NotNil(t, c.Categories())
	assert.Empty(t, c.Categories())
}

func TestController_RefreshInstallsStoreList(t *testing.T) {
	notes := &recorder{}
	c := catalog.NewController(storage.NewMemory(seedBooks()...), notes, nil)

	require.NoError(t, c.Refresh(context.Background()))

	books := c.Books()
	require.Len(t, books, 3)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Emma", books[1].Title)
	assert.Equal(t, "Untitled", books[2].Title)
	assert.Equal(t, []string{"Romance", "Science Fiction"}, c.Categories())
	assert.Empty(t, notes.all(), "a successful refresh is silent")
}

func TestController_RefreshFailureKeepsPreviousCatalog(t *testing.T) {
	notes := &recorder{}
	store := storage.NewFaulty(storage.NewMemory(seedBooks()...))
	c := catalog.NewController(store, notes, nil)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	before := c.Books()

	store.Inject(catalog.OpList, errors.New("network unreachable"), 1)
	err := c.Refresh(ctx)

	var opErr *catalog.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, catalog.OpList, opErr.Op)
	assert.Equal(t, "network unreachable", opErr.Reason)
	assert.Equal(t, before, c.Books())

	sent := notes.all()
	require.Len(t, sent, 1)
	assert.Equal(t, catalog.LevelError, sent[0].Level)
	assert.Equal(t, "Error", sent[0].Title)
	assert.Equal(t, "Failed to fetch books: network unreachable", sent[0].Message)
}

func TestController_BooksReturnsCopy(t *testing.T) {
	c := catalog.NewController(storage.NewMemory(seedBooks()...), &recorder{}, nil)
	require.NoError(t, c.Refresh(context.Background()))

	books := c.Books()
	books[0].Title = "changed"

	assert.Equal(t, "Dune", c.Books()[0].Title)
}

func TestController_VisibleAndLookup(t *testing.T) {
	c := catalog.NewController(storage.NewMemory(seedBooks()...), &recorder{}, nil)
	require.NoError(t, c.Refresh(context.Background()))

	visible := c.Visible("austen", catalog.AllCategories)
	require.Len(t, visible, 1)
	assert.Equal(t, "Emma", visible[0].Title)

	book, ok := c.Lookup(visible[0].ID)
	assert.True(t, ok)
	assert.Equal(t, visible[0], book)

	_, ok = c.Lookup(uuid.New())
	assert.False(t, ok)
}

func TestController_NilNotifierLogs(t *testing.T) {
	store := storage.NewFaulty(storage.NewMemory())
	store.Inject(catalog.OpList, errors.New("down"), 1)
	c := catalog.NewController(store, nil, nil)

	assert.Error(t, c.Refresh(context.Background()))
}
