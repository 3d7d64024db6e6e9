package models

import "time"

// TokenPurpose tags what a stored token may be used for.
type TokenPurpose string

const (
	PurposeRefresh       TokenPurpose = "refresh"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// Token is a server-side credential record. There is at most one live
// record per (UserID, Purpose).
type Token struct {
	ID        string
	UserID    string
	Value     string
	Purpose   TokenPurpose
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExpiredAt reports whether the record has an expiry strictly before now.
// A record without expiry never expires.
func (t *Token) ExpiredAt(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
