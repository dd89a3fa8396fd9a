package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/bookmark-api/internal/apperror"
	"github.com/sakif/bookmark-api/internal/model"
	"github.com/sakif/bookmark-api/internal/repository"
)

var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, email, hash, first_name, last_name, created_at, updated_at`

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts u. Emails are unique; a second account with the same
// address returns apperror.ErrConflict.
func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	now := timestamp()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := s.db.QueryRowxContext(ctx,
		s.q(`INSERT INTO users (email, hash, first_name, last_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		u.Email, u.Hash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("sqlstore: creating user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlstore: getting user %d: %w", id, err)
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
		}
		return nil, fmt.Errorf("sqlstore: getting user by email: %w", err)
	}
	return &u, nil
}

// Update applies the non-nil fields of patch and returns the stored row.
func (s *UserStore) Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{timestamp()}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *patch.FirstName)
	}
	if patch.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *patch.LastName)
	}
	args = append(args, id)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: beginning user update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`),
		args...,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperror.Conflict("user", "email")
		}
		return nil, fmt.Errorf("sqlstore: updating user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: checking update result for user %d: %w", id, err)
	}
	if n == 0 {
		return nil, apperror.NotFound("user", id)
	}

	var u model.User
	if err := tx.GetContext(ctx, &u, tx.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id); err != nil {
		return nil, fmt.Errorf("sqlstore: reading updated user %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlstore: committing user update %d: %w", id, err)
	}
	return &u, nil
}
