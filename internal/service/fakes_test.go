package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/bookmark-api/internal/apperror"
	"github.com/sakif/bookmark-api/internal/model"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They follow the
// same contract as sqlstore: single-row operations are scoped by owner and
// report a foreign row exactly like a missing one. Setting an *Err field
// simulates a database failure.

type fakeBookmarkRepo struct {
	mu        sync.Mutex
	bookmarks map[int64]*model.Bookmark
	nextID    int64

	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

func newFakeBookmarkRepo() *fakeBookmarkRepo {
	return &fakeBookmarkRepo{bookmarks: make(map[int64]*model.Bookmark)}
}

func (f *fakeBookmarkRepo) ListByUser(_ context.Context, userID int64) ([]model.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := []model.Bookmark{}
	for _, b := range f.bookmarks {
		if b.UserID == userID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeBookmarkRepo) GetByIDForUser(_ context.Context, userID, id int64) (*model.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookmarks[id]
	if !ok || b.UserID != userID {
		return nil, apperror.NotFound("bookmark", id)
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookmarkRepo) Create(_ context.Context, b *model.Bookmark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	now := time.Now()
	b.ID = f.nextID
	b.CreatedAt = now
	b.UpdatedAt = now
	stored := *b
	f.bookmarks[b.ID] = &stored
	return nil
}

func (f *fakeBookmarkRepo) UpdateOwned(_ context.Context, userID, id int64, patch model.BookmarkPatch) (*model.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	b, ok := f.bookmarks[id]
	if !ok || b.UserID != userID {
		return nil, apperror.NotFound("bookmark", id)
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Description != nil {
		d := *patch.Description
		b.Description = &d
	}
	if patch.Link != nil {
		b.Link = *patch.Link
	}
	b.UpdatedAt = time.Now()
	copied := *b
	return &copied, nil
}

func (f *fakeBookmarkRepo) DeleteOwned(_ context.Context, userID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	b, ok := f.bookmarks[id]
	if !ok || b.UserID != userID {
		return apperror.NotFound("bookmark", id)
	}
	delete(f.bookmarks, id)
	return nil
}

func (f *fakeBookmarkRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookmarks)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64

	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) emailTaken(email string, exceptID int64) bool {
	for _, u := range f.users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.emailTaken(u.Email, 0) {
		return apperror.Conflict("user", "email")
	}
	f.nextID++
	now := time.Now()
	u.ID = f.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (f *fakeUserRepo) Update(_ context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	if patch.Email != nil {
		if f.emailTaken(*patch.Email, id) {
			return nil, apperror.Conflict("user", "email")
		}
		u.Email = *patch.Email
	}
	if patch.FirstName != nil {
		u.FirstName = patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = patch.LastName
	}
	u.UpdatedAt = time.Now()
	copied := *u
	return &copied, nil
}

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
