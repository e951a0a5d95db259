package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/service"
	"github.com/Mahbub2001/morgan-backend/pkg/httputil"
)

// UserService is the user API as seen by the HTTP layer.
type UserService interface {
	Upsert(ctx context.Context, email string, req service.UpsertUserRequest) (*domain.User, string, error)
}

// UserHandler handles user registration.
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

type upsertUserResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Upsert handles PUT /users/{email}
func (h *UserHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req service.UpsertUserRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	u, token, err := h.service.Upsert(r.Context(), chi.URLParam(r, "email"), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, upsertUserResponse{User: u, Token: token})
}
