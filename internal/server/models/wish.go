package models

import "time"

type WishStatus string

const (
	WishActive   WishStatus = "active"
	WishAchieved WishStatus = "achieved"
	WishArchived WishStatus = "archived"
)

func (s WishStatus) Valid() bool {
	switch s {
	case WishActive, WishAchieved, WishArchived:
		return true
	}
	return false
}

const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

type Wish struct {
	ID          string     `json:"id"`
	WishlistID  string     `json:"wishlistId"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	URL         *string    `json:"url,omitempty"`
	PriceCents  *int64     `json:"priceCents,omitempty"`
	Priority    int        `json:"priority"`
	Status      WishStatus `json:"status"`
	ImageKey    *string    `json:"imageKey,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}

// WishPatch carries optional updates; nil fields are left untouched.
type WishPatch struct {
	WishlistID  *string
	Title       *string
	Description *string
	URL         *string
	PriceCents  *int64
	Priority    *int
	Status      *WishStatus
}

// WishFilter narrows wish listings. Empty fields match everything.
type WishFilter struct {
	WishlistID string
	Status     WishStatus
}
