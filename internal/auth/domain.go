package auth

import "time"

// User is a staff account in the directory.
type User struct {
	ID           string
	Name         string
	Email        string
	RoleID       string
	PasswordHash string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
