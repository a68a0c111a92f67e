// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"librarymanager/internal/catalog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	isbn TEXT,
	publisher TEXT,
	publication_year INT,
	category TEXT,
	description TEXT,
	quantity INT NOT NULL CHECK (quantity >= 1),
	available INT NOT NULL CHECK (available >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS book_events (
	id BIGSERIAL PRIMARY KEY,
	book_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	event_data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_book_events_book ON book_events (book_id, id);
`

const selectBooks = `
	SELECT id, title, author,
		COALESCE(isbn, '') AS isbn,
		COALESCE(publisher, '') AS publisher,
		COALESCE(publication_year, 0) AS publication_year,
		COALESCE(category, '') AS category,
		COALESCE(description, '') AS description,
		quantity, available
	FROM books
	ORDER BY title ASC
`

// Postgres keeps the books table in PostgreSQL and journals every mutation
// in the same transaction.
type Postgres struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

// NewPostgres wraps an open lib/pq connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{
		db:     sqlx.NewDb(db, "postgres"),
		tracer: otel.Tracer("librarymanager/storage"),
	}
}

// EnsureSchema creates the books and book_events tables when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]catalog.Book, error) {
	ctx, span := p.tracer.Start(ctx, "postgres.list")
	defer span.End()

	var books []catalog.Book
	if err := p.db.SelectContext(ctx, &books, selectBooks); err != nil {
		return nil, p.fail(span, err)
	}

	span.SetAttributes(attribute.Int("books.count", len(books)))
	return books, nil
}

func (p *Postgres) Insert(ctx context.Context, in catalog.BookInput) (catalog.Book, error) {
	book := in.WithID(uuid.New())

	ctx, span := p.tracer.Start(ctx, "postgres.insert",
		trace.WithAttributes(attribute.String("book.id", book.ID.String())),
	)
	defer span.End()

	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO books (id, title, author, isbn, publisher, publication_year, category, description, quantity, available)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, 0), NULLIF($7, ''), NULLIF($8, ''), $9, $10)
		`, book.ID, book.Title, book.Author, book.ISBN, book.Publisher, book.PublicationYear,
			book.Category, book.Description, book.Quantity, book.Available)
		if err != nil {
			return err
		}
		return appendEvent(ctx, tx, book.ID, catalog.EventBookAdded, book)
	})
	if err != nil {
		return catalog.Book{}, p.fail(span, err)
	}

	return book, nil
}

func (p *Postgres) Update(ctx context.Context, id uuid.UUID, in catalog.BookInput) error {
	ctx, span := p.tracer.Start(ctx, "postgres.update",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE books SET
				title = $2, author = $3, isbn = NULLIF($4, ''), publisher = NULLIF($5, ''),
				publication_year = NULLIF($6, 0), category = NULLIF($7, ''), description = NULLIF($8, ''),
				quantity = $9, available = $10, updated_at = NOW()
			WHERE id = $1
		`, id, in.Title, in.Author, in.ISBN, in.Publisher, in.PublicationYear,
			in.Category, in.Description, in.Quantity, in.Available)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			span.SetAttributes(attribute.Bool("book.found", false))
			return nil
		}
		return appendEvent(ctx, tx, id, catalog.EventBookUpdated, in.WithID(id))
	})
	if err != nil {
		return p.fail(span, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := p.tracer.Start(ctx, "postgres.delete",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			span.SetAttributes(attribute.Bool("book.found", false))
			return nil
		}
		return appendEvent(ctx, tx, id, catalog.EventBookRemoved, catalog.BookRemovedEvent{ID: id})
	})
	if err != nil {
		return p.fail(span, err)
	}
	return nil
}

// History returns the journal entries of one book, oldest first.
func (p *Postgres) History(ctx context.Context, id uuid.UUID) ([]catalog.Event, error) {
	ctx, span := p.tracer.Start(ctx, "postgres.history",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	events, err := loadEvents(ctx, p.db, id)
	if err != nil {
		return nil, p.fail(span, err)
	}
	return events, nil
}

func (p *Postgres) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) fail(span trace.Span, err error) error {
	err = readable(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// dbError carries the message PostgreSQL reported, without driver prefixes.
type dbError struct {
	msg string
	err error
}

func (e *dbError) Error() string { return e.msg }
func (e *dbError) Unwrap() error { return e.err }

func readable(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &dbError{msg: pqErr.Message, err: err}
	}
	return err
}

func marshalEvent(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
