package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes, so longer input is refused.
	MaxPasswordBytes = 72
	MaxTitleLength   = 200
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

// ValidateEmail expects an already normalized address.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return validationError("email is invalid")
	}
	return nil
}

func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return validationError("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return validationError("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return validationError("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return validationError("title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

func validatePriority(p int) error {
	if p < models.MinPriority || p > models.MaxPriority {
		return validationError("priority must be between %d and %d", models.MinPriority, models.MaxPriority)
	}
	return nil
}

func validateStatus(s models.WishStatus) error {
	if !s.Valid() {
		return validationError("status %q is not one of active, achieved, archived", s)
	}
	return nil
}
