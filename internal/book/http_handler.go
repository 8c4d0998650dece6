package book

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bookstore/internal/httpx"
)

const (
	msgDuplicate = "This book is already in the database"
	msgUseUpdate = "Use PATCH request to update 'acquired' status"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createBookReq struct {
	Title         string   `json:"title" validate:"required,notblank,max=200"`
	Authors       []string `json:"authors" validate:"dive,required,notblank,max=100"`
	Acquired      *bool    `json:"acquired"`
	PublishedYear *int     `json:"published_year" validate:"required,gte=0"`
}

type updateBookReq struct {
	Acquired *bool `json:"acquired" validate:"required"`
}

// List handles GET /books/
// @Summary List books
// @Description List books filtered by id, external_id, from, to, published_year, author, authors, title, title__icontains, title__exact and acquired
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books/ [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_FILTER", err.Error(), nil)
		return
	}

	books, err := h.service.List(r.Context(), f)
	if err != nil {
		httpx.Logger(r).Error().Err(err).Msg("list books")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if books == nil {
		books = []Book{}
	}

	httpx.JSONSuccess(w, r, books, map[string]any{"total": len(books)})
}

// Create handles POST /books/
// @Summary Create a book
// @Description Create a book unless one with the same title, published year and authors exists
// @Tags books
// @Accept json
// @Produce json
// @Success 201 {object} httpx.SuccessResponse
// @Success 200 {object} httpx.SuccessResponse "duplicate detected"
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books/ [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookReq
	if details := httpx.DecodeJSON(r, &req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", details)
		return
	}

	authors := req.Authors
	if authors == nil {
		authors = []string{}
	}
	res, err := h.service.Create(r.Context(), CreateInput{
		Title:         req.Title,
		Authors:       authors,
		Acquired:      req.Acquired,
		PublishedYear: *req.PublishedYear,
	})
	if err != nil {
		httpx.Logger(r).Error().Err(err).Msg("create book")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	switch res.Outcome {
	case OutcomeUseUpdate:
		httpx.JSONMessage(w, r, msgUseUpdate)
	case OutcomeDuplicate:
		httpx.JSONMessage(w, r, msgDuplicate)
	default:
		httpx.JSONSuccessCreated(w, r, res.Book)
	}
}

// Get handles GET /books/{id}/
// @Summary Get book by id
// @Tags books
// @Produce json
// @Param id path int true "Book id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id}/ [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, id, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Update handles PATCH /books/{id}/
// @Summary Update acquired status
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id}/ [patch]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req updateBookReq
	if details := httpx.DecodeJSON(r, &req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", details)
		return
	}

	b, err := h.service.UpdateAcquired(r.Context(), id, *req.Acquired)
	if err != nil {
		h.writeErr(w, r, id, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /books/{id}/
// @Summary Delete a book
// @Description Delete a book and its author links; authors are kept
// @Tags books
// @Param id path int true "Book id"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id}/ [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeErr(w, r, id, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// ListAuthors handles GET /authors/
// @Summary List authors
// @Tags authors
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /authors/ [get]
func (h *HTTPHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.service.ListAuthors(r.Context())
	if err != nil {
		httpx.Logger(r).Error().Err(err).Msg("list authors")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if authors == nil {
		authors = []Author{}
	}
	httpx.JSONSuccess(w, r, authors, map[string]any{"total": len(authors)})
}

func (h *HTTPHandler) writeErr(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", notFoundMessage(id), nil)
		return
	}
	httpx.Logger(r).Error().Err(err).Int64("book_id", id).Msg("book request failed")
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

// bookID parses the {id} path value. Non-numeric ids are reported as not found.
func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("There is no book with id %s", raw), nil)
		return 0, false
	}
	return id, true
}

func notFoundMessage(id int64) string {
	return fmt.Sprintf("There is no book with id %d", id)
}
