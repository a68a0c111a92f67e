package catalog

import (
	"context"

	"librarymanager/internal/observability"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Coordinator issues create, update and delete requests against the store.
// Every operation reports its outcome through the Notifier, and on success
// closes the open dialog and refreshes the catalog. The refresh starts only
// after the store has acknowledged the mutation. Failures are returned as
// *OperationError and never retried.
type Coordinator struct {
	store   Store
	catalog *Controller
	view    *View
	notify  Notifier
	confirm Confirmer
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// CoordinatorOption customises a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithView attaches the dialog state machine closed by successful mutations.
func WithView(v *View) CoordinatorOption {
	return func(c *Coordinator) { c.view = v }
}

// WithNotifier sets where outcomes are reported. Defaults to LogNotifier.
func WithNotifier(n Notifier) CoordinatorOption {
	return func(c *Coordinator) { c.notify = n }
}

// WithConfirmer sets who answers the delete prompt. Defaults to ContextConfirmer.
func WithConfirmer(cf Confirmer) CoordinatorOption {
	return func(c *Coordinator) { c.confirm = cf }
}

// WithMetrics records operation outcomes.
func WithMetrics(m *observability.Metrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a coordinator refreshing catalog after mutations.
func NewCoordinator(store Store, catalog *Controller, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:   store,
		catalog: catalog,
		notify:  LogNotifier{},
		confirm: ContextConfirmer,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create inserts a new book. On failure the create form stays open.
func (c *Coordinator) Create(ctx context.Context, in BookInput) (Book, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.create")
	defer span.End()

	book, err := c.store.Insert(ctx, in)
	if err != nil {
		return Book{}, c.fail(ctx, span, OpInsert, err)
	}

	span.SetAttributes(attribute.String("book.id", book.ID.String()))
	c.succeed(ctx, OpInsert, "Book added successfully")
	return book, nil
}

// Update replaces the fields of the book with the given ID. A nil ID means
// nothing is selected and the call does nothing.
func (c *Coordinator) Update(ctx context.Context, id uuid.UUID, in BookInput) error {
	if id == uuid.Nil {
		c.metrics.RecordMutation(ctx, string(OpUpdate), observability.OutcomeNoOp)
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "catalog.update",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	if err := c.store.Update(ctx, id, in); err != nil {
		return c.fail(ctx, span, OpUpdate, err)
	}

	c.succeed(ctx, OpUpdate, "Book updated successfully")
	return nil
}

// UpdateSelected updates the book open in the edit dialog, if any.
func (c *Coordinator) UpdateSelected(ctx context.Context, in BookInput) error {
	if c.view.State() != EditOpen {
		return c.Update(ctx, uuid.Nil, in)
	}
	selected, _ := c.view.Selected()
	return c.Update(ctx, selected.ID, in)
}

// Delete removes the book with the given ID once the user confirms. A
// declined prompt returns false with no store call and no notification.
func (c *Coordinator) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if !c.confirm.Confirm(ctx, DeletePrompt) {
		c.metrics.RecordMutation(ctx, string(OpDelete), observability.OutcomeDeclined)
		return false, nil
	}

	ctx, span := c.tracer.Start(ctx, "catalog.delete",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	if err := c.store.Delete(ctx, id); err != nil {
		return false, c.fail(ctx, span, OpDelete, err)
	}

	c.succeed(ctx, OpDelete, "Book deleted successfully")
	return true, nil
}

func (c *Coordinator) fail(ctx context.Context, span trace.Span, op Op, err error) error {
	opErr := newOperationError(op, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, opErr.Reason)
	c.metrics.RecordMutation(ctx, string(op), observability.OutcomeFailure)
	log.Warn().Err(err).Str("op", string(op)).Msg("store operation failed")
	c.notify.Notify(ctx, Failure(opErr.Reason))
	return opErr
}

func (c *Coordinator) succeed(ctx context.Context, op Op, message string) {
	c.metrics.RecordMutation(ctx, string(op), observability.OutcomeSuccess)
	c.notify.Notify(ctx, Success(message))
	c.view.Close()
	// A failed refresh reports itself; the mutation already happened.
	_ = c.catalog.Refresh(ctx)
}
