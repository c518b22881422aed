// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered identity. PasswordHash is a bcrypt digest.
type User struct {
	ID           string
	Email        string
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}
