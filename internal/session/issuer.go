package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/auth"
	"github.com/Goofygiraffe06/prepwise/internal/identity"
	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/models"
	"github.com/Goofygiraffe06/prepwise/internal/utils"
	"github.com/Goofygiraffe06/prepwise/store/ephemeral"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound  = errors.New("user does not exist, create an account first")
	ErrEmailMismatch = errors.New("id token was issued for another email")
	ErrNoSession     = errors.New("no active session")
)

// UserLookup finds registered users by email.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (models.User, bool)
}

// Options configures the session tokens.
type Options struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Issuer exchanges verified ID tokens for session tokens.
type Issuer struct {
	verifier identity.TokenVerifier
	users    UserLookup
	sessions *ephemeral.SessionStore
	opts     Options
}

func NewIssuer(verifier identity.TokenVerifier, users UserLookup, sessions *ephemeral.SessionStore, opts Options) *Issuer {
	return &Issuer{verifier: verifier, users: users, sessions: sessions, opts: opts}
}

// EstablishSession verifies req.IDToken, checks that it belongs to a registered user
// with req.Email and issues a session token.
func (i *Issuer) EstablishSession(ctx context.Context, req models.SessionRequest) (*models.Session, error) {
	email := utils.NormalizeEmail(req.Email)
	emailField := zap.String("email_hash", utils.HashEmail(email))

	claims, err := i.verifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		logging.Warn("session rejected: token verification failed", emailField, zap.Error(err))
		return nil, err
	}
	if utils.NormalizeEmail(claims.Email) != email {
		logging.Warn("session rejected: email mismatch", emailField)
		return nil, ErrEmailMismatch
	}

	user, found := i.users.GetUserByEmail(ctx, email)
	if !found {
		logging.Warn("session rejected: no user record", emailField)
		return nil, ErrUserNotFound
	}

	sid, err := auth.GenerateSessionID()
	if err != nil {
		return nil, err
	}
	exp := time.Now().Add(i.opts.TTL)
	token, err := auth.IssueSessionToken(i.opts.Secret, i.opts.Issuer, sid, user.UID, email, exp)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	if err := i.sessions.Set(sid, email, i.opts.TTL); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}

	logging.Info("session established", emailField, zap.String("sid_hash", utils.HashToken(sid)))
	return &models.Session{ID: sid, UID: user.UID, Email: email, Token: token, ExpiresAt: exp}, nil
}

// Validate returns the session a token refers to if it is signed, unexpired and not revoked.
func (i *Issuer) Validate(token string) (*models.Session, error) {
	claims, err := auth.ParseSessionToken(i.opts.Secret, i.opts.Issuer, token)
	if err != nil {
		logging.Debug("session token rejected", zap.Error(err))
		return nil, ErrNoSession
	}
	email, ok := i.sessions.Get(claims.ID)
	if !ok || email != claims.Email {
		logging.Debug("session not active", zap.String("sid_hash", utils.HashToken(claims.ID)))
		return nil, ErrNoSession
	}
	return &models.Session{
		ID:        claims.ID,
		UID:       claims.Subject,
		Email:     claims.Email,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke ends the session a token refers to. Unknown or invalid tokens are ignored.
func (i *Issuer) Revoke(token string) {
	claims, err := auth.ParseSessionToken(i.opts.Secret, i.opts.Issuer, token)
	if err != nil {
		return
	}
	i.sessions.Delete(claims.ID)
	logging.InfoLog("Session revoked sid=[%s]", utils.HashToken(claims.ID))
}
