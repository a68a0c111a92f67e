// internal/catalog/handler.go
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Handler exposes the catalog over HTTP. Delete requests answer the
// confirmation prompt with the confirm query parameter, so the coordinator
// must use ContextConfirmer.
type Handler struct {
	catalog     *Controller
	coordinator *Coordinator
	history     Historian
	limiter     *rate.Limiter
}

// NewHandler creates a handler. history and limiter may be nil.
func NewHandler(catalog *Controller, coordinator *Coordinator, history Historian, limiter *rate.Limiter) *Handler {
	return &Handler{
		catalog:     catalog,
		coordinator: coordinator,
		history:     history,
		limiter:     limiter,
	}
}

// Register mounts the catalog routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/books", h.handleListBooks)
	r.Get("/books/{id}", h.handleGetBook)
	r.Get("/books/{id}/history", h.handleHistory)

	r.Group(func(r chi.Router) {
		r.Use(h.limitMutations)
		r.Post("/books", h.handleCreateBook)
		r.Put("/books/{id}", h.handleUpdateBook)
		r.Delete("/books/{id}", h.handleDeleteBook)
		r.Post("/refresh", h.handleRefresh)
	})
}

type listResponse struct {
	Books      []Book   `json:"books"`
	Categories []string `json:"categories"`
	Count      int      `json:"count"`
	Summary    string   `json:"summary"`
	EmptyState string   `json:"empty_state,omitempty"`
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")
	if category == "" {
		category = AllCategories
	}

	books := h.catalog.Visible(search, category)
	if books == nil {
		books = []Book{}
	}

	resp := listResponse{
		Books:      books,
		Categories: h.catalog.Categories(),
		Count:      len(books),
		Summary:    CountLabel(len(books)),
	}
	if len(books) == 0 {
		resp.EmptyState = EmptyStateMessage(search, category)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	book, found := h.catalog.Lookup(id)
	if !found {
		http.Error(w, fmt.Sprintf("book with ID %s not found", id), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if h.history == nil {
		http.Error(w, ErrNoHistory.Error(), http.StatusNotImplemented)
		return
	}

	events, err := h.history.History(r.Context(), id)
	if errors.Is(err, ErrNoHistory) {
		http.Error(w, err.Error(), http.StatusNotImplemented)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if events == nil {
		events = []Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	book, err := h.coordinator.Create(r.Context(), in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	if err := h.coordinator.Update(r.Context(), id, in); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx := WithConfirmation(r.Context(), r.URL.Query().Get("confirm") == "true")
	deleted, err := h.coordinator.Delete(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": false})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": len(h.catalog.Books())})
}

func (h *Handler) limitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid book ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func decodeInput(w http.ResponseWriter, r *http.Request) (BookInput, bool) {
	var in BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return BookInput{}, false
	}

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "invalid book",
				"fields": fields,
			})
			return BookInput{}, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return BookInput{}, false
	}

	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
