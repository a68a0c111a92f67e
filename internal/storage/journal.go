package storage

import (
	"context"
	"fmt"
	"time"

	"librarymanager/internal/catalog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func appendEvent(ctx context.Context, tx *sqlx.Tx, bookID uuid.UUID, eventType string, payload any) error {
	data, err := marshalEvent(payload)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO book_events (book_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4)
	`, bookID, eventType, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append %s event: %w", eventType, err)
	}
	return nil
}

func loadEvents(ctx context.Context, db sqlx.QueryerContext, bookID uuid.UUID) ([]catalog.Event, error) {
	var events []catalog.Event
	err := sqlx.SelectContext(ctx, db, &events, `
		SELECT id, book_id, event_type, event_data, created_at
		FROM book_events
		WHERE book_id = $1
		ORDER BY id ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}
