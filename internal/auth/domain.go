package auth

import "time"

// User represents a staff account able to sign in.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
