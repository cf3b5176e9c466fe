package handler

import (
	"io"
	"log/slog"
	"net/http"

	"portal/internal/httputil"
	"portal/internal/service"
)

// maxUploadSize caps a single multipart upload at 50MB.
const maxUploadSize = 50 << 20

// FileHandler handles file HTTP requests
type FileHandler struct {
	fileService service.FileService
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService service.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// ListFiles returns a folder's files in display order
// GET /api/folders/{id}/files
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID := r.PathValue("id")
	if folderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder id is required")
		return
	}

	files, err := h.fileService.ListFiles(r.Context(), httputil.GetUserID(r), folderID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, files)
}

// UploadFile uploads a document into a folder. Expects a multipart form
// with a "file" part and an optional "description" field.
// POST /api/folders/{id}/files
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	folderID := r.PathValue("id")
	if folderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder id is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	req := &service.UploadFileRequest{
		FolderID:    folderID,
		Name:        header.Filename,
		Description: r.FormValue("description"),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	file, err := h.fileService.UploadFile(r.Context(), httputil.GetUserID(r), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, file)
}

// DeleteFile deletes a file record
// DELETE /api/files/{id}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "file id is required")
		return
	}

	if err := h.fileService.DeleteFile(r.Context(), httputil.GetUserID(r), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderFiles persists new positions for a folder's files
// PUT /api/files/positions
func (h *FileHandler) ReorderFiles(w http.ResponseWriter, r *http.Request) {
	var req service.ReorderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.fileService.ReorderFiles(r.Context(), httputil.GetUserID(r), &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
