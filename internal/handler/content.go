package handler

import (
	"io"
	"log/slog"
	"net/http"

	"portal/internal/httputil"
	"portal/internal/service"
)

// ContentHandler handles site content HTTP requests
type ContentHandler struct {
	contentService service.ContentService
	logger         *slog.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		logger:         logger,
	}
}

// GetHome returns the home page payload (defaults when never written)
// GET /api/content/home
func (h *ContentHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	home, err := h.contentService.GetHome(r.Context(), httputil.GetUserID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, home)
}

// UpdateHome rewrites the home page title and description
// PUT /api/content/home
func (h *ContentHandler) UpdateHome(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateHomeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	home, err := h.contentService.UpdateHome(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, home)
}

// ReplaceHeroImage swaps the home hero image. Expects a multipart form
// with an "image" part.
// POST /api/content/home/hero
func (h *ContentHandler) ReplaceHeroImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	part, header, err := r.FormFile("image")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "image part is required")
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	home, err := h.contentService.ReplaceHeroImage(
		r.Context(),
		httputil.GetUserID(r),
		header.Filename,
		header.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, home)
}

// infoResponse wraps the info page HTML.
type infoResponse struct {
	Content string `json:"content"`
}

// GetInfo returns the info page HTML
// GET /api/content/info
func (h *ContentHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	content, err := h.contentService.GetInfo(r.Context(), httputil.GetUserID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, infoResponse{Content: content})
}

// UpdateInfo stores the info page HTML
// PUT /api/content/info
func (h *ContentHandler) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateInfoRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.contentService.UpdateInfo(r.Context(), httputil.GetUserID(r), &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
