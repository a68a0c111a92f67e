package catalog

import (
	"context"
	"slices"
	"sync/atomic"

	"librarymanager/internal/observability"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "librarymanager/catalog"

type snapshot struct {
	books      []Book
	categories []string
}

// Controller owns the in-memory copy of the catalog. The copy is never the
// source of truth: Refresh discards it and installs the store's list whole.
//
// Store calls block until the store answers or ctx ends; the controller adds
// no timeout of its own.
type Controller struct {
	store   Store
	notify  Notifier
	metrics *observability.Metrics
	tracer  trace.Tracer

	current atomic.Pointer[snapshot]
}

// NewController returns a controller with an empty catalog.
// A nil notifier logs notifications instead.
func NewController(store Store, notify Notifier, metrics *observability.Metrics) *Controller {
	if notify == nil {
		notify = LogNotifier{}
	}
	c := &Controller{
		store:   store,
		notify:  notify,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
	c.current.Store(&snapshot{categories: []string{}})
	return c
}

// Refresh replaces the catalog with the store's current list. On failure the
// previous catalog stays and the failure is reported; nothing is retried.
func (c *Controller) Refresh(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "catalog.refresh")
	defer span.End()

	books, err := c.store.List(ctx)
	if err != nil {
		opErr := newOperationError(OpList, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, opErr.Reason)
		c.metrics.RecordRefresh(ctx, false, 0)
		log.Warn().Err(err).Msg("catalog refresh failed")
		c.notify.Notify(ctx, Failure("Failed to fetch books: "+opErr.Reason))
		return opErr
	}

	c.current.Store(&snapshot{
		books:      books,
		categories: distinctCategories(books),
	})

	span.SetAttributes(attribute.Int("catalog.size", len(books)))
	c.metrics.RecordRefresh(ctx, true, len(books))
	log.Debug().Int("books", len(books)).Msg("catalog refreshed")
	return nil
}

// Books returns a copy of the current catalog in store order.
func (c *Controller) Books() []Book {
	return slices.Clone(c.current.Load().books)
}

// Categories returns the distinct non-empty categories of the current catalog.
func (c *Controller) Categories() []string {
	return slices.Clone(c.current.Load().categories)
}

// Visible filters the current catalog.
func (c *Controller) Visible(search, category string) []Book {
	return Filter(c.current.Load().books, search, category)
}

// Lookup finds a book of the current catalog by ID.
func (c *Controller) Lookup(id uuid.UUID) (Book, bool) {
	for _, b := range c.current.Load().books {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}
