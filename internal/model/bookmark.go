// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. The `json` tags control the
// wire format and the `db` tags map columns for sqlx.
package model

import "time"

// Bookmark is a saved link owned by exactly one user.
//
// Description is optional, so it is a pointer: a NULL column scans into nil
// and serialises as JSON null.
type Bookmark struct {
	ID          int64     `json:"id"          db:"id"`
	UserID      int64     `json:"userId"      db:"user_id"`
	Title       string    `json:"title"       db:"title"`
	Description *string   `json:"description" db:"description"`
	Link        string    `json:"link"        db:"link"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// CreateBookmarkInput carries the fields accepted when creating a bookmark.
// The owner is never part of the input; it always comes from the
// authenticated caller.
type CreateBookmarkInput struct {
	Title       string
	Link        string
	Description *string
}

// BookmarkPatch is a partial update. A nil field keeps the stored value.
type BookmarkPatch struct {
	Title       *string
	Description *string
	Link        *string
}

// IsEmpty reports whether the patch changes no field.
func (p BookmarkPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Link == nil
}
