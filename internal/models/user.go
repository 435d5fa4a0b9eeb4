package models

import "time"

// User is the application profile written by account registration.
type User struct {
	UID       string
	Name      string
	Email     string
	CreatedAt time.Time
}

// Credential is a local identity provider account.
type Credential struct {
	UID          string
	Email        string
	PasswordHash string
}

// Session is an established sign-in session.
type Session struct {
	ID        string
	UID       string
	Email     string
	Token     string
	ExpiresAt time.Time
}
