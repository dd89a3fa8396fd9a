// Package repository declares the storage contracts the services depend on.
//
// Implementations live in subpackages (sqlstore). Services only see these
// interfaces, so tests can swap in in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/bookmark-api/internal/model"
)

// BookmarkRepository persists bookmarks. Every read and mutation that
// targets a single row is scoped by owner: a row belonging to another user
// behaves exactly like a missing one.
type BookmarkRepository interface {
	// ListByUser returns the user's bookmarks ordered by id. Never nil.
	ListByUser(ctx context.Context, userID int64) ([]model.Bookmark, error)

	// GetByIDForUser returns apperror.ErrNotFound when no row matches both
	// id and owner.
	GetByIDForUser(ctx context.Context, userID, id int64) (*model.Bookmark, error)

	// Create inserts b and fills in ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, b *model.Bookmark) error

	// UpdateOwned applies patch to the row matching id and owner in a single
	// conditional statement and returns the updated row.
	// Zero rows affected yields apperror.ErrNotFound.
	UpdateOwned(ctx context.Context, userID, id int64, patch model.BookmarkPatch) (*model.Bookmark, error)

	// DeleteOwned removes the row matching id and owner.
	// Zero rows affected yields apperror.ErrNotFound.
	DeleteOwned(ctx context.Context, userID, id int64) error
}

// UserRepository persists accounts.
type UserRepository interface {
	// Create inserts u and fills in ID, CreatedAt and UpdatedAt.
	// A duplicate email yields apperror.ErrConflict.
	Create(ctx context.Context, u *model.User) error

	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Update applies patch and returns the updated row.
	// A duplicate email yields apperror.ErrConflict.
	Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error)
}
