package models

import (
	"strings"
	"time"
)

// User is a registered account.
type User struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username           string    `json:"username" gorm:"type:varchar(256);not null"`
	NormalizedUsername string    `json:"-" gorm:"uniqueIndex;type:varchar(256);not null"`
	Email              string    `json:"email" gorm:"type:varchar(256)"`
	NormalizedEmail    string    `json:"-" gorm:"index;type:varchar(256)"`
	PasswordHash       string    `json:"-" gorm:"type:varchar(255);not null"` // never serialized
	CreatedAt          time.Time `json:"-"`
}

// UserSummary is the only projection of a user returned by the API.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterRequest is the body of POST /api/users/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=256"`
	Email    string `json:"email" validate:"required,email,max=256"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Summary projects u to the fields safe to expose.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}

// NormalizeName returns the case-insensitive lookup key for a username or email.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
