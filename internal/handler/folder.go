package handler

import (
	"log/slog"
	"net/http"

	"portal/internal/httputil"
	"portal/internal/service"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService service.FolderService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService service.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		logger:        logger,
	}
}

// ListFolders returns all folders in display order
// GET /api/folders
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.folderService.ListFolders(r.Context(), httputil.GetUserID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, folders)
}

// CreateFolder creates a new folder at the end of the list
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folder, err := h.folderService.CreateFolder(r.Context(), httputil.GetUserID(r), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// DeleteFolder deletes a folder
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder id is required")
		return
	}

	if err := h.folderService.DeleteFolder(r.Context(), httputil.GetUserID(r), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderFolders persists new positions for the whole folder list
// PUT /api/folders/positions
func (h *FolderHandler) ReorderFolders(w http.ResponseWriter, r *http.Request) {
	var req service.ReorderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.folderService.ReorderFolders(r.Context(), httputil.GetUserID(r), &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
