package models

import "time"

type Wishlist struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	IsPublic    bool       `json:"isPublic"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}

// WishlistPatch carries optional updates; nil fields are left untouched.
type WishlistPatch struct {
	Title       *string
	Description *string
	IsPublic    *bool
}
