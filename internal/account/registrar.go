package account

import (
	"context"
	"errors"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/manager"
	"github.com/Goofygiraffe06/prepwise/internal/models"
	"github.com/Goofygiraffe06/prepwise/internal/utils"
	"github.com/Goofygiraffe06/prepwise/store"
	"go.uber.org/zap"
)

const (
	MsgCreated      = "Account created successfully. Please sign in."
	MsgUserExists   = "User already exists. Please sign in instead."
	MsgEmailInUse   = "This email is already in use."
	MsgCreateFailed = "Failed to create an account"
)

// UserStore persists application user records.
type UserStore interface {
	AddUser(ctx context.Context, user models.User) error
	GetUserByUID(ctx context.Context, uid string) (models.User, bool)
}

// WelcomeSender mails a freshly registered user.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// Registrar writes the user record for an account the identity provider just created.
// The password is accepted for contract compatibility and never stored.
type Registrar struct {
	users   UserStore
	mgr     *manager.WorkManager
	welcome WelcomeSender
}

// NewRegistrar builds a registrar. welcome may be nil to disable welcome mail.
func NewRegistrar(users UserStore, mgr *manager.WorkManager, welcome WelcomeSender) *Registrar {
	return &Registrar{users: users, mgr: mgr, welcome: welcome}
}

// RegisterAccount reports store conflicts through the result, not the error.
// The error is reserved for the caller's context being done.
func (r *Registrar) RegisterAccount(ctx context.Context, rec models.AccountRecord) (models.RegistrationResult, error) {
	start := time.Now()
	email := utils.NormalizeEmail(rec.Email)
	emailField := zap.String("email_hash", utils.HashEmail(email))

	if _, exists := r.users.GetUserByUID(ctx, rec.UID); exists {
		logging.Warn("registration failed: user exists", emailField)
		return models.RegistrationResult{Success: false, Message: MsgUserExists}, nil
	}

	err := r.mgr.RunDB(ctx, func(ctx context.Context) error {
		return r.users.AddUser(ctx, models.User{UID: rec.UID, Name: rec.Name, Email: email})
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrUserExists):
		logging.Warn("registration failed: user exists", emailField)
		return models.RegistrationResult{Success: false, Message: MsgUserExists}, nil
	case errors.Is(err, store.ErrEmailInUse):
		logging.Warn("registration failed: email in use", emailField)
		return models.RegistrationResult{Success: false, Message: MsgEmailInUse}, nil
	case ctx.Err() != nil:
		return models.RegistrationResult{}, ctx.Err()
	default:
		logging.Error("registration failed: database error", emailField, zap.Error(err))
		return models.RegistrationResult{Success: false, Message: MsgCreateFailed}, nil
	}

	r.scheduleWelcome(email, rec.Name)

	logging.Info("registration completed", emailField, zap.Duration("elapsed", time.Since(start)))
	return models.RegistrationResult{Success: true, Message: MsgCreated}, nil
}

func (r *Registrar) scheduleWelcome(email, name string) {
	if r.welcome == nil {
		return
	}
	err := r.mgr.SubmitSMTP(func(ctx context.Context) {
		if err := r.welcome.SendWelcome(ctx, email, name); err != nil {
			logging.WarnLog("Welcome mail dropped [%s]: %v", utils.HashEmail(email), err)
		}
	})
	if err != nil {
		logging.WarnLog("Welcome mail not scheduled [%s]: %v", utils.HashEmail(email), err)
	}
}
