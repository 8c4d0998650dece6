package ingest

import (
	"errors"
	"net/http"

	"bookstore/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

type importReq struct {
	Author string `json:"author" validate:"required,notblank,max=100"`
}

// Import handles POST /import/
// @Summary Import books by author
// @Description Fetch every Google Books volume by the author and reconcile it with the catalog
// @Tags import
// @Accept json
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /import/ [post]
func (h *HTTPHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importReq
	if details := httpx.DecodeJSON(r, &req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", details)
		return
	}

	res, err := h.svc.Import(r.Context(), req.Author)
	if err != nil {
		if errors.Is(err, ErrExternalSource) {
			httpx.Logger(r).Warn().Err(err).Str("author", req.Author).Msg("import source failed")
			httpx.JSONError(w, r, http.StatusBadGateway, "EXTERNAL_SOURCE_ERROR", "Could not fetch books from the external source", nil)
			return
		}
		httpx.Logger(r).Error().Err(err).Msg("import books")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, res, nil)
}

// GetRun handles GET /import/runs/{id}/
// @Summary Get an import run
// @Tags import
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /import/runs/{id}/ [get]
func (h *HTTPHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Import run not found", nil)
			return
		}
		httpx.Logger(r).Error().Err(err).Msg("get import run")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, run, nil)
}
