// Package models defines server-side data models persisted in the database.
package models

import "time"

// IdentityID identifies a registered user. The zero value means "no identity"
// and never matches anything.
type IdentityID string

// IsZero reports whether id is unset.
func (id IdentityID) IsZero() bool { return id == "" }

func (id IdentityID) String() string { return string(id) }

// User is a registered identity. PasswordHash never leaves the server.
type User struct {
	ID           IdentityID `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
