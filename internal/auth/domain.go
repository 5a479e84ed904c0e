package auth

import "time"

// User is a back-office account.
type User struct {
	ID           int64
	Username     string
	Name         string
	Role         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser is the input for creating an account.
type NewUser struct {
	Username string
	Name     string
	Role     string
	Password string
}
