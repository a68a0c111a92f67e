// internal/clients/rest_store.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"librarymanager/internal/catalog"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const booksPath = "/rest/v1/books"

// ErrCircuitOpen is returned while the breaker refuses calls to the gateway.
var ErrCircuitOpen = errors.New("the book service is unavailable, try again shortly")

// RESTConfig configures a RESTStore.
type RESTConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// RESTStore talks to a PostgREST gateway in front of the books table.
type RESTStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
}

// statusError is a non-2xx gateway response. Error returns the gateway's own
// message when it sent one.
type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status code: %d", e.Status)
}

func NewRESTStore(cfg RESTConfig) *RESTStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "book-store",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.Status < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return &RESTStore{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		tracer:  otel.Tracer("librarymanager/clients"),
	}
}

func (s *RESTStore) List(ctx context.Context) ([]catalog.Book, error) {
	ctx, span := s.tracer.Start(ctx, "rest.list")
	defer span.End()

	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "title.asc")

	var rows []bookRow
	if err := s.do(ctx, span, http.MethodGet, q, nil, &rows); err != nil {
		return nil, err
	}

	books := make([]catalog.Book, 0, len(rows))
	for _, r := range rows {
		books = append(books, r.book())
	}
	span.SetAttributes(attribute.Int("books.count", len(books)))
	return books, nil
}

func (s *RESTStore) Insert(ctx context.Context, in catalog.BookInput) (catalog.Book, error) {
	ctx, span := s.tracer.Start(ctx, "rest.insert")
	defer span.End()

	var rows []bookRow
	if err := s.do(ctx, span, http.MethodPost, nil, payload(in), &rows); err != nil {
		return catalog.Book{}, err
	}
	if len(rows) == 0 {
		err := errors.New("the book service did not return the new book")
		s.fail(span, err)
		return catalog.Book{}, err
	}

	book := rows[0].book()
	span.SetAttributes(attribute.String("book.id", book.ID.String()))
	return book, nil
}

func (s *RESTStore) Update(ctx context.Context, id uuid.UUID, in catalog.BookInput) error {
	ctx, span := s.tracer.Start(ctx, "rest.update",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	return s.do(ctx, span, http.MethodPatch, idFilter(id), payload(in), nil)
}

func (s *RESTStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "rest.delete",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	return s.do(ctx, span, http.MethodDelete, idFilter(id), nil, nil)
}

func (s *RESTStore) do(ctx context.Context, span trace.Span, method string, query url.Values, body any, out any) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.roundTrip(ctx, method, query, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrCircuitOpen
	}
	if err != nil {
		s.fail(span, err)
	}
	return err
}

func (s *RESTStore) roundTrip(ctx context.Context, method string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := s.baseURL + booksPath
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return &statusError{Status: resp.StatusCode, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *RESTStore) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func idFilter(id uuid.UUID) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id.String())
	return q
}

// bookRow mirrors a books row; optional columns may be null.
type bookRow struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            *string   `json:"isbn"`
	Publisher       *string   `json:"publisher"`
	PublicationYear *int      `json:"publication_year"`
	Category        *string   `json:"category"`
	Description     *string   `json:"description"`
	Quantity        int       `json:"quantity"`
	Available       int       `json:"available"`
}

func (r bookRow) book() catalog.Book {
	b := catalog.Book{
		ID:        r.ID,
		Title:     r.Title,
		Author:    r.Author,
		Quantity:  r.Quantity,
		Available: r.Available,
	}
	if r.ISBN != nil {
		b.ISBN = *r.ISBN
	}
	if r.Publisher != nil {
		b.Publisher = *r.Publisher
	}
	if r.PublicationYear != nil {
		b.PublicationYear = *r.PublicationYear
	}
	if r.Category != nil {
		b.Category = *r.Category
	}
	if r.Description != nil {
		b.Description = *r.Description
	}
	return b
}

// payload sends every column, with nulls for empty optional fields, so an
// update clears what the form cleared.
func payload(in catalog.BookInput) map[string]any {
	orNil := func(s string) any {
		if s == "" {
			return nil
		}
		return s
	}
	var year any
	if in.PublicationYear != 0 {
		year = in.PublicationYear
	}
	return map[string]any{
		"title":            in.Title,
		"author":           in.Author,
		"isbn":             orNil(in.ISBN),
		"publisher":        orNil(in.Publisher),
		"publication_year": year,
		"category":         orNil(in.Category),
		"description":      orNil(in.Description),
		"quantity":         in.Quantity,
		"available":        in.Available,
	}
}
