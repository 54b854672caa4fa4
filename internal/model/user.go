// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account. The same account can donate organs and
// file requests.
//
// WHY PasswordHash HAS json:"-"?
// The hash must never leave the server. The "-" tag makes encoding/json skip
// the field entirely, so even if a handler accidentally encodes a full User
// the hash is not in the response.
//
// Email is stored trimmed and lower-cased; the store enforces uniqueness.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Phone        string    `json:"phone"     db:"phone"`
	Address      string    `json:"address"   db:"address"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// ChatRole identifies who authored a chat turn.
type ChatRole string

const (
	ChatRoleUser ChatRole = "user"
	ChatRoleBot  ChatRole = "bot"
)

// ChatTurn is one entry of a user's append-only chat history.
type ChatTurn struct {
	Role      ChatRole  `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Profile is the public part of a User returned by /api/auth/me.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ProfileOf strips a User down to its Profile.
func ProfileOf(u *User) Profile {
	return Profile{Name: u.Name, Email: u.Email, Phone: u.Phone, Address: u.Address}
}
