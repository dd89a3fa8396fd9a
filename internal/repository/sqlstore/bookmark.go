package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/bookmark-api/internal/apperror"
	"github.com/sakif/bookmark-api/internal/model"
	"github.com/sakif/bookmark-api/internal/repository"
)

var _ repository.BookmarkRepository = (*BookmarkStore)(nil)

const bookmarkColumns = `id, user_id, title, description, link, created_at, updated_at`

// BookmarkStore persists bookmarks. Every single-row statement carries
// "AND user_id = ?", so ownership is checked by the same statement that reads
// or writes the row.
type BookmarkStore struct {
	db *sqlx.DB
}

func NewBookmarkStore(db *sqlx.DB) *BookmarkStore {
	return &BookmarkStore{db: db}
}

func (s *BookmarkStore) q(query string) string { return s.db.Rebind(query) }

// ListByUser returns every bookmark owned by userID, oldest first.
func (s *BookmarkStore) ListByUser(ctx context.Context, userID int64) ([]model.Bookmark, error) {
	bookmarks := []model.Bookmark{}
	err := s.db.SelectContext(ctx, &bookmarks,
		s.q(`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = ? ORDER BY id`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing bookmarks for user %d: %w", userID, err)
	}
	return bookmarks, nil
}

// GetByIDForUser returns the bookmark only if userID owns it.
func (s *BookmarkStore) GetByIDForUser(ctx context.Context, userID, id int64) (*model.Bookmark, error) {
	var b model.Bookmark
	err := s.db.GetContext(ctx, &b,
		s.q(`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`),
		id, userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("bookmark", id)
		}
		return nil, fmt.Errorf("sqlstore: getting bookmark %d: %w", id, err)
	}
	return &b, nil
}

// Create inserts b. The id is assigned by the database and written back to
// b together with the timestamps.
func (s *BookmarkStore) Create(ctx context.Context, b *model.Bookmark) error {
	now := timestamp()
	b.CreatedAt = now
	b.UpdatedAt = now

	err := s.db.QueryRowxContext(ctx,
		s.q(`INSERT INTO bookmarks (user_id, title, description, link, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		b.UserID, b.Title, b.Description, b.Link, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: creating bookmark: %w", err)
	}
	return nil
}

// UpdateOwned runs one conditional UPDATE scoped to id and owner, then reads
// the row back in the same transaction. A concurrent delete either happens
// before the UPDATE (zero rows, NotFound) or after the commit.
func (s *BookmarkStore) UpdateOwned(ctx context.Context, userID, id int64, patch model.BookmarkPatch) (*model.Bookmark, error) {
	sets := []string{"updated_at = ?"}
	args := []any{timestamp()}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Link != nil {
		sets = append(sets, "link = ?")
		args = append(args, *patch.Link)
	}
	args = append(args, id, userID)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: beginning bookmark update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE bookmarks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: updating bookmark %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: checking update result for bookmark %d: %w", id, err)
	}
	if n == 0 {
		return nil, apperror.NotFound("bookmark", id)
	}

	var b model.Bookmark
	err = tx.GetContext(ctx, &b,
		tx.Rebind(`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`),
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: reading updated bookmark %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlstore: committing bookmark update %d: %w", id, err)
	}
	return &b, nil
}

// DeleteOwned removes the bookmark if userID owns it.
func (s *BookmarkStore) DeleteOwned(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM bookmarks WHERE id = ? AND user_id = ?`),
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting bookmark %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking delete result for bookmark %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("bookmark", id)
	}
	return nil
}

// timestamp is the current time in UTC at microsecond precision, the finest
// resolution postgres keeps.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
