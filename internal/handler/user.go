package handler

import (
	"log/slog"
	"net/http"

	"portal/internal/httputil"
	"portal/internal/service"
)

// UserHandler handles admin user-management HTTP requests
type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers returns all profiles
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context(), httputil.GetUserID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, users)
}

// DeleteUser removes a non-admin user and its profile
// DELETE /api/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "user id is required")
		return
	}

	if err := h.userService.DeleteUser(r.Context(), httputil.GetUserID(r), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
