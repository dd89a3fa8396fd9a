// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → enforces ownership and auth rules
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, never a concrete store, so tests run
// against in-memory fakes and the SQL backend can change without touching
// this package. Every operation receives the caller's user id from the
// handler; it is trusted because the bearer middleware already verified it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/bookmark-api/internal/apperror"
	"github.com/sakif/bookmark-api/internal/metrics"
	"github.com/sakif/bookmark-api/internal/model"
	"github.com/sakif/bookmark-api/internal/repository"
)

// AccessDeniedMessage is returned when an edit or delete targets a bookmark
// the caller does not own. Missing bookmarks get the same message.
const AccessDeniedMessage = "Access to resource denied"

// BookmarkService enforces that users only see and change their own
// bookmarks. It holds no mutable state; concurrent calls are safe as long as
// the repository is.
type BookmarkService struct {
	repo   repository.BookmarkRepository
	logger *slog.Logger
}

func NewBookmarkService(repo repository.BookmarkRepository, logger *slog.Logger) *BookmarkService {
	return &BookmarkService{
		repo:   repo,
		logger: logger,
	}
}

// List returns every bookmark owned by userID in store order.
// The result is never nil, so it always encodes as a JSON array.
func (s *BookmarkService) List(ctx context.Context, userID int64) ([]model.Bookmark, error) {
	bookmarks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.record("list", metrics.OutcomeError)
		s.logger.Error("failed to list bookmarks",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	if bookmarks == nil {
		bookmarks = []model.Bookmark{}
	}

	s.record("list", metrics.OutcomeOK)
	return bookmarks, nil
}

// GetByID returns the bookmark if userID owns it.
//
// A bookmark owned by someone else and one that does not exist both yield
// apperror.ErrNotFound; callers cannot probe for other users' ids.
func (s *BookmarkService) GetByID(ctx context.Context, userID, bookmarkID int64) (*model.Bookmark, error) {
	b, err := s.repo.GetByIDForUser(ctx, userID, bookmarkID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.record("get", metrics.OutcomeNotFound)
			return nil, err
		}
		s.record("get", metrics.OutcomeError)
		return nil, fmt.Errorf("getting bookmark %d: %w", bookmarkID, err)
	}

	s.record("get", metrics.OutcomeOK)
	return b, nil
}

// Create stores a new bookmark owned by userID. Input is validated at the
// HTTP boundary and is not re-checked here.
func (s *BookmarkService) Create(ctx context.Context, userID int64, in model.CreateBookmarkInput) (*model.Bookmark, error) {
	b := &model.Bookmark{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Link:        in.Link,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		s.record("create", metrics.OutcomeError)
		s.logger.Error("failed to create bookmark",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating bookmark: %w", err)
	}

	s.record("create", metrics.OutcomeOK)
	s.logger.Info("bookmark created",
		slog.Int64("id", b.ID),
		slog.Int64("userID", userID),
	)
	return b, nil
}

// Edit applies patch to a bookmark owned by userID and returns the result.
// Fields left nil keep their stored values.
//
// The ownership check and the write are one conditional statement in the
// store, so a bookmark deleted or reassigned between requests can never be
// edited. Zero matching rows, whether the id is missing or foreign, is
// reported as apperror.ErrForbidden.
func (s *BookmarkService) Edit(ctx context.Context, userID, bookmarkID int64, patch model.BookmarkPatch) (*model.Bookmark, error) {
	b, err := s.repo.UpdateOwned(ctx, userID, bookmarkID, patch)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.record("edit", metrics.OutcomeDenied)
			s.logger.Warn("bookmark edit denied",
				slog.Int64("id", bookmarkID),
				slog.Int64("userID", userID),
			)
			return nil, apperror.Forbidden(AccessDeniedMessage)
		}
		s.record("edit", metrics.OutcomeError)
		s.logger.Error("failed to edit bookmark",
			slog.Int64("id", bookmarkID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("editing bookmark %d: %w", bookmarkID, err)
	}

	s.record("edit", metrics.OutcomeOK)
	s.logger.Info("bookmark edited",
		slog.Int64("id", b.ID),
		slog.Int64("userID", userID),
	)
	return b, nil
}

// Delete removes a bookmark owned by userID. Same access rule as Edit.
func (s *BookmarkService) Delete(ctx context.Context, userID, bookmarkID int64) error {
	if err := s.repo.DeleteOwned(ctx, userID, bookmarkID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.record("delete", metrics.OutcomeDenied)
			s.logger.Warn("bookmark delete denied",
				slog.Int64("id", bookmarkID),
				slog.Int64("userID", userID),
			)
			return apperror.Forbidden(AccessDeniedMessage)
		}
		s.record("delete", metrics.OutcomeError)
		s.logger.Error("failed to delete bookmark",
			slog.Int64("id", bookmarkID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting bookmark %d: %w", bookmarkID, err)
	}

	s.record("delete", metrics.OutcomeOK)
	s.logger.Info("bookmark deleted",
		slog.Int64("id", bookmarkID),
		slog.Int64("userID", userID),
	)
	return nil
}

func (s *BookmarkService) record(op, outcome string) {
	metrics.BookmarkOperationsTotal.WithLabelValues(op, outcome).Inc()
}
