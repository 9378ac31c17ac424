package domain

import "time"

// User represents an account holder. PasswordHash never leaves the server.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a verified identity resolved from a session token. Claims are
// authoritative only when re-fetched from the user store.
type Session struct {
	UserID    string
	Email     string
	Name      string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
