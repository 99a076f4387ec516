package domain

import "time"

type User struct {
	ID             int64
	Username       string
	PasswordHash   string  // argon2 encoded
	IsAdmin        bool
	ExternalHandle *string // Telegram chat id, nil until the account is linked
	CreatedAt      time.Time
}

// Linked reports whether the user has an external handle to deliver to.
func (u User) Linked() bool {
	return u.ExternalHandle != nil && *u.ExternalHandle != ""
}

// UserPatch carries a partial update. Nil fields are left unchanged.
type UserPatch struct {
	IsAdmin        *bool
	ExternalHandle *string
}
