package model

import "time"

// User represents a registered account.
//
// Hash holds the bcrypt digest of the password. The `json:"-"` tag keeps it
// out of every API response, including /users/me.
type User struct {
	ID        int64     `json:"id"        db:"id"`
	Email     string    `json:"email"     db:"email"`
	Hash      string    `json:"-"         db:"hash"`
	FirstName *string   `json:"firstName" db:"first_name"`
	LastName  *string   `json:"lastName"  db:"last_name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserPatch is a partial profile update. A nil field keeps the stored value.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
}
