package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/auth"
	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/manager"
	"github.com/Goofygiraffe06/prepwise/internal/models"
	"github.com/Goofygiraffe06/prepwise/internal/utils"
	"github.com/Goofygiraffe06/prepwise/store"
)

// CredentialStore persists local accounts.
type CredentialStore interface {
	AddCredential(ctx context.Context, cred models.Credential) error
	GetCredential(ctx context.Context, email string) (models.Credential, bool)
	DeleteCredential(ctx context.Context, uid string) error
}

// LocalOptions configures a Local provider.
type LocalOptions struct {
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Local is a self-hosted identity provider. Passwords are bcrypt hashed on the crypto
// pool and ID tokens are EdDSA JWTs signed with key.
type Local struct {
	store CredentialStore
	mgr   *manager.WorkManager
	key   *auth.SigningKey
	opts  LocalOptions

	dummyOnce sync.Once
	dummyHash string
}

var (
	_ Provider       = (*Local)(nil)
	_ TokenVerifier  = (*Local)(nil)
	_ AccountRemover = (*Local)(nil)
)

func NewLocal(credStore CredentialStore, mgr *manager.WorkManager, key *auth.SigningKey, opts LocalOptions) *Local {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	return &Local{store: credStore, mgr: mgr, key: key, opts: opts}
}

func (l *Local) CreateAccount(ctx context.Context, email, password string) (*UserCredential, error) {
	email = utils.NormalizeEmail(email)
	emailHash := utils.HashEmail(email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	if _, exists := l.store.GetCredential(ctx, email); exists {
		logging.WarnLog("Local identity: account exists [%s]", emailHash)
		return nil, ErrEmailExists
	}

	var hash string
	err := l.mgr.RunCrypto(ctx, func(context.Context) error {
		var herr error
		hash, herr = auth.HashPassword(password, l.opts.BcryptCost)
		return herr
	})
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, ErrWeakPassword
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	uid, err := auth.GenerateUID()
	if err != nil {
		return nil, err
	}

	err = l.mgr.RunDB(ctx, func(ctx context.Context) error {
		return l.store.AddCredential(ctx, models.Credential{UID: uid, Email: email, PasswordHash: hash})
	})
	if errors.Is(err, store.ErrEmailInUse) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	logging.InfoLog("Local identity: account created [%s]", emailHash)
	return &UserCredential{UID: uid, Email: email}, nil
}

func (l *Local) Authenticate(ctx context.Context, email, password string) (Session, error) {
	email = utils.NormalizeEmail(email)
	emailHash := utils.HashEmail(email)

	cred, found := l.store.GetCredential(ctx, email)
	hash := cred.PasswordHash
	if !found {
		// Compare against a throwaway hash so unknown emails cost as much as wrong passwords.
		hash = l.unknownUserHash()
	}

	var cmpErr error
	err := l.mgr.RunCrypto(ctx, func(context.Context) error {
		cmpErr = auth.CheckPassword(password, hash)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !found || cmpErr != nil {
		logging.WarnLog("Local identity: authentication failed [%s]", emailHash)
		return nil, ErrInvalidCredentials
	}

	logging.InfoLog("Local identity: authenticated [%s]", emailHash)
	return &localSession{provider: l, uid: cred.UID, email: cred.Email}, nil
}

func (l *Local) DeleteAccount(ctx context.Context, uid string) error {
	err := l.mgr.RunDB(ctx, func(ctx context.Context) error {
		return l.store.DeleteCredential(ctx, uid)
	})
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	logging.InfoLog("Local identity: account removed uid=[%s]", utils.HashToken(uid))
	return nil
}

// VerifyIDToken checks tokens minted by this provider.
func (l *Local) VerifyIDToken(_ context.Context, idToken string) (*Claims, error) {
	claims, err := auth.ParseIDToken(l.key, l.opts.Issuer, idToken)
	if err != nil {
		logging.DebugLog("Local identity: token rejected: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &Claims{
		UID:       claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (l *Local) unknownUserHash() string {
	l.dummyOnce.Do(func() {
		l.dummyHash, _ = auth.HashPassword("unknown-user-placeholder", l.opts.BcryptCost)
	})
	return l.dummyHash
}

type localSession struct {
	provider *Local
	uid      string
	email    string

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (s *localSession) UID() string { return s.uid }

func (s *localSession) IDToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiresAt) {
		return s.token, nil
	}
	token, exp, err := auth.IssueIDToken(s.provider.key, s.provider.opts.Issuer, s.uid, s.email, s.provider.opts.TokenTTL)
	if err != nil {
		return "", err
	}
	s.token, s.expiresAt = token, exp
	return token, nil
}
