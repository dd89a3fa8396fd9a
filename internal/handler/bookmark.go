package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/bookmark-api/internal/apperror"
	"github.com/sakif/bookmark-api/internal/auth"
	"github.com/sakif/bookmark-api/internal/model"
)

// BookmarkService is what BookmarkHandler needs from the service layer.
type BookmarkService interface {
	List(ctx context.Context, userID int64) ([]model.Bookmark, error)
	GetByID(ctx context.Context, userID, bookmarkID int64) (*model.Bookmark, error)
	Create(ctx context.Context, userID int64, in model.CreateBookmarkInput) (*model.Bookmark, error)
	Edit(ctx context.Context, userID, bookmarkID int64, patch model.BookmarkPatch) (*model.Bookmark, error)
	Delete(ctx context.Context, userID, bookmarkID int64) error
}

// BookmarkHandler serves /bookmark. Every route sits behind
// auth.RequireAuth; the owner is always the authenticated caller, never a
// request field.
type BookmarkHandler struct {
	bookmarks BookmarkService
	logger    *slog.Logger
}

func NewBookmarkHandler(bookmarks BookmarkService, logger *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks, logger: logger}
}

type createBookmarkRequest struct {
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Description *string `json:"description"`
}

type editBookmarkRequest struct {
	ID          *int64  `json:"id"`
	Title       *string `json:"title"`
	Link        *string `json:"link"`
	Description *string `json:"description"`
}

// HandleList returns the caller's bookmarks.
//
// HTTP: GET /bookmark → 200 [Bookmark, ...] ([] when there are none)
func (h *BookmarkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	bookmarks, err := h.bookmarks.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

// HandleGet returns one bookmark.
//
// HTTP: GET /bookmark/{id}
//
// A bookmark the caller does not own is indistinguishable from a missing
// one: both answer 200 with a JSON null body.
func (h *BookmarkHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.bookmarks.GetByID(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleCreate stores a new bookmark for the caller.
//
// HTTP: POST /bookmark
// REQUEST BODY: {"title": "...", "link": "...", "description": "..."?}
// 201 with the stored bookmark; 400 when title or link is missing or blank.
func (h *BookmarkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createBookmarkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	title, err := requireNonEmpty("title", req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	link, err := requireNonEmpty("link", req.Link)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.bookmarks.Create(r.Context(), userID, model.CreateBookmarkInput{
		Title:       title,
		Link:        link,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// HandleEdit partially updates a bookmark.
//
// HTTP: PATCH /bookmark/{id}  or  PATCH /bookmark with "id" in the body
// REQUEST BODY: {"title"?, "link"?, "description"?}
// 403 when the bookmark is missing or belongs to someone else.
func (h *BookmarkHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req editBookmarkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.editTarget(r, req.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	title, err := optionalNonEmpty("title", req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	link, err := optionalNonEmpty("link", req.Link)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.bookmarks.Edit(r.Context(), userID, id, model.BookmarkPatch{
		Title:       title,
		Description: req.Description,
		Link:        link,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// editTarget resolves the bookmark id from the path, falling back to the
// body. When both are given they must agree.
func (h *BookmarkHandler) editTarget(r *http.Request, bodyID *int64) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		if bodyID == nil || *bodyID <= 0 {
			return 0, apperror.ValidationFailed("id", "id must be a positive integer")
		}
		return *bodyID, nil
	}

	id, err := parseID(raw)
	if err != nil {
		return 0, err
	}
	if bodyID != nil && *bodyID != id {
		return 0, apperror.ValidationFailed("id", "id in body does not match the URL")
	}
	return id, nil
}

// HandleDelete removes a bookmark.
//
// HTTP: DELETE /bookmark/{id} → 204 No Content; 403 as for edit.
func (h *BookmarkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.bookmarks.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// callerID reads the authenticated user id set by auth.RequireAuth. It
// writes 401 and returns false when the route was mounted without the
// middleware.
func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return 0, false
	}
	return userID, true
}
