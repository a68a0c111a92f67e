package storage

import (
	"context"
	"sync"
	"time"

	"librarymanager/internal/catalog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type fault struct {
	err       error
	remaining int // < 0 means until cleared
}

// Faulty wraps a store and injects failures and latency per operation.
type Faulty struct {
	next catalog.Store

	mu     sync.Mutex
	faults map[catalog.Op]*fault
	delay  time.Duration
	calls  map[catalog.Op]int
}

// NewFaulty wraps next with no faults armed.
func NewFaulty(next catalog.Store) *Faulty {
	return &Faulty{
		next:   next,
		faults: make(map[catalog.Op]*fault),
		calls:  make(map[catalog.Op]int),
	}
}

// Inject makes the next times calls of op fail with err. times < 0 fails
// every call until Clear.
func (f *Faulty) Inject(op catalog.Op, err error, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[op] = &fault{err: err, remaining: times}
}

// Delay holds every call for d before it reaches the wrapped store.
func (f *Faulty) Delay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Clear disarms every fault and the delay.
func (f *Faulty) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = make(map[catalog.Op]*fault)
	f.delay = 0
}

// Calls reports how many times op reached the wrapped store.
func (f *Faulty) Calls(op catalog.Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Faulty) enter(ctx context.Context, op catalog.Op) error {
	f.mu.Lock()
	delay := f.delay
	var injected error
	if ft, ok := f.faults[op]; ok && ft.remaining != 0 {
		injected = ft.err
		if ft.remaining > 0 {
			ft.remaining--
		}
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if injected != nil {
		trace.SpanFromContext(ctx).AddEvent("fault.injected", trace.WithAttributes(
			attribute.String("fault.op", string(op)),
			attribute.String("fault.error", injected.Error()),
		))
		return injected
	}

	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
	return nil
}

func (f *Faulty) List(ctx context.Context) ([]catalog.Book, error) {
	if err := f.enter(ctx, catalog.OpList); err != nil {
		return nil, err
	}
	return f.next.List(ctx)
}

func (f *Faulty) Insert(ctx context.Context, in catalog.BookInput) (catalog.Book, error) {
	if err := f.enter(ctx, catalog.OpInsert); err != nil {
		return catalog.Book{}, err
	}
	return f.next.Insert(ctx, in)
}

func (f *Faulty) Update(ctx context.Context, id uuid.UUID, in catalog.BookInput) error {
	if err := f.enter(ctx, catalog.OpUpdate); err != nil {
		return err
	}
	return f.next.Update(ctx, id, in)
}

func (f *Faulty) Delete(ctx context.Context, id uuid.UUID) error {
	if err := f.enter(ctx, catalog.OpDelete); err != nil {
		return err
	}
	return f.next.Delete(ctx, id)
}

// History passes through when the wrapped store keeps a journal.
func (f *Faulty) History(ctx context.Context, id uuid.UUID) ([]catalog.Event, error) {
	h, ok := f.next.(catalog.Historian)
	if !ok {
		return nil, catalog.ErrNoHistory
	}
	return h.History(ctx, id)
}
