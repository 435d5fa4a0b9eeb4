// Package identity is the boundary to the service that owns email/password accounts.
// Two providers implement it: Local, backed by the service's own SQLite database, and
// Firebase, backed by the Identity Toolkit REST API.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmailExists        = errors.New("an account already exists for this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrInvalidToken       = errors.New("invalid id token")
)

// UserCredential is returned when an account has been created.
type UserCredential struct {
	UID   string
	Email string
}

// Session is an authenticated identity provider session.
type Session interface {
	UID() string
	// IDToken returns a currently valid ID token, refreshing it if needed.
	// An empty token with a nil error means the provider issued none.
	IDToken(ctx context.Context) (string, error)
}

// Provider creates and authenticates email/password accounts.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (*UserCredential, error)
	Authenticate(ctx context.Context, email, password string) (Session, error)
}

// AccountRemover is implemented by providers that can undo CreateAccount, so a sign-up
// whose registration failed does not leave an orphaned account behind.
type AccountRemover interface {
	DeleteAccount(ctx context.Context, uid string) error
}

// Claims is the verified content of an ID token.
type Claims struct {
	UID       string
	Email     string
	ExpiresAt time.Time
}

// TokenVerifier checks ID tokens minted by a Provider.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Claims, error)
}

// ProviderError is a remote rejection that has no sentinel mapping.
type ProviderError struct {
	Provider string
	Status   int
	Code     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Code, e.Status)
}
