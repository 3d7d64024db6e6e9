// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. PasswordHash is only populated by lookups that ask for
// it explicitly and is never serialized.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         *string    `json:"name,omitempty"`
	PasswordHash *string    `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// Public returns a copy of u with the password hash stripped.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = nil
	return &c
}
