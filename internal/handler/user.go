package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/bookmark-api/internal/model"
)

// UserService is what UserHandler needs from the service layer.
type UserService interface {
	GetByID(ctx context.Context, userID int64) (*model.User, error)
	Edit(ctx context.Context, userID int64, patch model.UserPatch) (*model.User, error)
}

// UserHandler serves the caller's own profile. The password hash never
// leaves the server: model.User excludes it from JSON.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type editUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Warn("users/me lookup failed",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleEdit updates the authenticated user's profile.
//
// HTTP: PATCH /users
// REQUEST BODY: {"email"?, "firstName"?, "lastName"?}
// 403 when the new email belongs to another account.
func (h *UserHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req editUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch := model.UserPatch{FirstName: req.FirstName, LastName: req.LastName}
	if req.Email != nil {
		email, err := validateEmail(*req.Email)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.Email = &email
	}

	user, err := h.users.Edit(r.Context(), userID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
