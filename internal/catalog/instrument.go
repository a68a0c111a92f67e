package catalog

import (
	"context"
	"time"

	"librarymanager/internal/observability"

	"github.com/google/uuid"
)

type instrumentedStore struct {
	next    Store
	metrics *observability.Metrics
}

// Instrument wraps s so every call is timed into metrics.
func Instrument(s Store, metrics *observability.Metrics) Store {
	if metrics == nil {
		return s
	}
	return &instrumentedStore{next: s, metrics: metrics}
}

func (s *instrumentedStore) List(ctx context.Context) ([]Book, error) {
	start := time.Now()
	books, err := s.next.List(ctx)
	s.metrics.RecordStoreCall(ctx, string(OpList), time.Since(start), err)
	return books, err
}

func (s *instrumentedStore) Insert(ctx context.Context, in BookInput) (Book, error) {
	start := time.Now()
	book, err := s.next.Insert(ctx, in)
	s.metrics.RecordStoreCall(ctx, string(OpInsert), time.Since(start), err)
	return book, err
}

func (s *instrumentedStore) Update(ctx context.Context, id uuid.UUID, in BookInput) error {
	start := time.Now()
	err := s.next.Update(ctx, id, in)
	s.metrics.RecordStoreCall(ctx, string(OpUpdate), time.Since(start), err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.metrics.RecordStoreCall(ctx, string(OpDelete), time.Since(start), err)
	return err
}

// History passes through to the wrapped store when it keeps a journal.
func (s *instrumentedStore) History(ctx context.Context, id uuid.UUID) ([]Event, error) {
	h, ok := s.next.(Historian)
	if !ok {
		return nil, ErrNoHistory
	}
	return h.History(ctx, id)
}
