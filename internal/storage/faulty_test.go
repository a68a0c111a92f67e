package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"librarymanager/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaulty_InjectFailsGivenTimes(t *testing.T) {
	f := NewFaulty(NewMemory(catalog.Book{Title: "Dune", Author: "Frank Herbert", Quantity: 1}))
	ctx := context.Background()
	boom := errors.New("connection refused")

	f.Inject(catalog.OpList, boom, 2)

	_, err := f.List(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = f.List(ctx)
	assert.ErrorIs(t, err, boom)

	books, err := f.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, 1, f.Calls(catalog.OpList))
}

func TestFaulty_InjectUntilCleared(t *testing.T) {
	f := NewFaulty(NewMemory())
	ctx := context.Background()
	boom := errors.New("permission denied")

	f.Inject(catalog.OpInsert, boom, -1)
	for i := 0; i < 3; i++ {
		_, err := f.Insert(ctx, catalog.BookInput{Title: "x", Author: "y", Quantity: 1})
		assert.ErrorIs(t, err, boom)
	}
	assert.Zero(t, f.Calls(catalog.OpInsert))

	f.Clear()
	_, err := f.Insert(ctx, catalog.BookInput{Title: "x", Author: "y", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls(catalog.OpInsert))
}

func TestFaulty_FaultsArePerOperation(t *testing.T) {
	f := NewFaulty(NewMemory())
	ctx := context.Background()

	f.Inject(catalog.OpDelete, errors.New("nope"), -1)

	_, err := f.List(ctx)
	assert.NoError(t, err)
	_, err = f.Insert(ctx, catalog.BookInput{Title: "x", Author: "y", Quantity: 1})
	assert.NoError(t, err)
}

func TestFaulty_DelayHonoursContext(t *testing.T) {
	f := NewFaulty(NewMemory())
	f.Delay(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.List(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, f.Calls(catalog.OpList))
}

func TestFaulty_HistoryPassesThrough(t *testing.T) {
	mem := NewMemory()
	f := NewFaulty(mem)
	ctx := context.Background()

	book, err := f.Insert(ctx, catalog.BookInput{Title: "Emma", Author: "Jane Austen", Quantity: 1})
	require.NoError(t, err)

	events, err := f.History(ctx, book.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
