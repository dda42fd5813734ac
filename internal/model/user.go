package model

import (
	"time"

	"gamehub-api/internal/role"
)

// User represents the users table.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         role.Role `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	AvatarPath   string    `json:"avatar,omitempty"`
	Active       bool      `json:"active"`
	LastLoginIP  string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStats aggregates counts for the admin user listing.
type UserStats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	Developers int64 `json:"developers"`
	Admins     int64 `json:"admins"`
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	// Search matches username or email substrings, case-insensitive.
	Search string
	// Role filters to a single role when set.
	Role *role.Role
}
