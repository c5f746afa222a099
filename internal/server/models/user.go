package models

import "time"

// User is an identity record. Email is stored case-folded; PasswordHash is
// an opaque bcrypt digest.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
