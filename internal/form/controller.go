package form

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/controller"
	"github.com/Goofygiraffe06/prepwise/internal/identity"
	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/models"
	"github.com/Goofygiraffe06/prepwise/internal/utils"
)

const (
	RedirectSignIn = "/sign-in"
	RedirectHome   = "/"

	MsgSignUpSuccess  = "Account created successfully. Please sign in."
	MsgSignInSuccess  = "Signed in successfully!"
	MsgSignInFailed   = "Sign in failed. Please try again."
	MsgInFlight       = "A request for this account is already in progress."
	msgUnexpectedBase = "An unexpected error occurred."

	removeAccountTimeout = 10 * time.Second
)

// AccountRegistrar records a newly created account on the server side.
type AccountRegistrar interface {
	RegisterAccount(ctx context.Context, rec models.AccountRecord) (models.RegistrationResult, error)
}

// SessionEstablisher turns a fresh ID token into an application session.
type SessionEstablisher interface {
	EstablishSession(ctx context.Context, req models.SessionRequest) (*models.Session, error)
}

// Outcome classifies a submission.
type Outcome int

const (
	// OutcomeInvalid means validation blocked the submission; see Result.Errors.
	OutcomeInvalid Outcome = iota + 1
	OutcomeSucceeded
	OutcomeFailed
	// OutcomeBusy means another submission for the same email is still running.
	OutcomeBusy
)

// Result is what the UI applies after a submission: inline errors or a single notice,
// and a redirect only on success.
type Result struct {
	Outcome  Outcome
	Errors   FieldErrors
	Notice   *models.Notice
	Redirect string
	// Session is set by a successful sign-in.
	Session *models.Session
}

// Controller runs submissions for one form Mode.
type Controller struct {
	mode      Mode
	schema    Schema
	provider  identity.Provider
	registrar AccountRegistrar
	sessions  SessionEstablisher
	inflight  *controller.InFlightRegistry
}

// New builds a controller. registrar is only used in ModeSignUp and sessions only in
// ModeSignIn; the other may be nil.
func New(mode Mode, provider identity.Provider, registrar AccountRegistrar, sessions SessionEstablisher) (*Controller, error) {
	schema, err := ResolveSchema(mode)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, errors.New("form: identity provider is required")
	}
	if mode == ModeSignUp && registrar == nil {
		return nil, errors.New("form: sign-up needs an account registrar")
	}
	if mode == ModeSignIn && sessions == nil {
		return nil, errors.New("form: sign-in needs a session establisher")
	}
	return &Controller{
		mode:      mode,
		schema:    schema,
		provider:  provider,
		registrar: registrar,
		sessions:  sessions,
		inflight:  controller.NewInFlightRegistry(),
	}, nil
}

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) Schema() Schema { return c.schema }

// Submit validates creds and, when they are valid, runs the flow for the controller's mode.
func (c *Controller) Submit(ctx context.Context, creds Credentials) Result {
	creds.Email = strings.TrimSpace(creds.Email)
	if c.mode == ModeSignIn {
		creds.Name = ""
	}

	if errs := c.schema.Validate(creds); errs != nil {
		return Result{Outcome: OutcomeInvalid, Errors: errs}
	}

	key := utils.NormalizeEmail(creds.Email)
	emailHash := utils.HashEmail(key)
	if !c.inflight.TryAcquire(key) {
		logging.WarnLog("Form %s rejected: submission in flight [%s]", c.mode, emailHash)
		return failure(OutcomeBusy, MsgInFlight)
	}
	defer c.inflight.Release(key)

	start := time.Now()
	var res Result
	switch c.mode {
	case ModeSignUp:
		res = c.signUp(ctx, creds)
	case ModeSignIn:
		res = c.signIn(ctx, creds)
	}

	if res.Outcome == OutcomeSucceeded {
		logging.InfoLog("Form %s succeeded [%s] %v", c.mode, emailHash, time.Since(start))
	} else {
		logging.WarnLog("Form %s failed [%s] %v: %s", c.mode, emailHash, time.Since(start), res.Notice.Message)
	}
	return res
}

func (c *Controller) signUp(ctx context.Context, creds Credentials) Result {
	cred, err := c.provider.CreateAccount(ctx, creds.Email, creds.Password)
	if err != nil {
		return unexpected(err)
	}

	reg, err := c.registrar.RegisterAccount(ctx, models.AccountRecord{
		UID:      cred.UID,
		Name:     creds.Name,
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		c.removeAccount(cred.UID)
		return unexpected(err)
	}
	if !reg.Success {
		c.removeAccount(cred.UID)
		return failure(OutcomeFailed, reg.Message)
	}

	return Result{
		Outcome:  OutcomeSucceeded,
		Notice:   &models.Notice{Kind: models.NoticeSuccess, Message: MsgSignUpSuccess},
		Redirect: RedirectSignIn,
	}
}

func (c *Controller) signIn(ctx context.Context, creds Credentials) Result {
	sess, err := c.provider.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		return unexpected(err)
	}

	idToken, err := sess.IDToken(ctx)
	if err != nil {
		return unexpected(err)
	}
	if idToken == "" {
		return failure(OutcomeFailed, MsgSignInFailed)
	}

	established, err := c.sessions.EstablishSession(ctx, models.SessionRequest{Email: creds.Email, IDToken: idToken})
	if err != nil {
		return unexpected(err)
	}

	return Result{
		Outcome:  OutcomeSucceeded,
		Notice:   &models.Notice{Kind: models.NoticeSuccess, Message: MsgSignInSuccess},
		Redirect: RedirectHome,
		Session:  established,
	}
}

// removeAccount undoes CreateAccount when the provider supports it. It runs on its own
// context because the request context may be the reason registration failed.
func (c *Controller) removeAccount(uid string) {
	remover, ok := c.provider.(identity.AccountRemover)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), removeAccountTimeout)
	defer cancel()
	if err := remover.DeleteAccount(ctx, uid); err != nil {
		logging.ErrorLog("Form %s: orphaned account uid=[%s]: %v", c.mode, utils.HashToken(uid), err)
	}
}

func failure(outcome Outcome, msg string) Result {
	return Result{
		Outcome: outcome,
		Notice:  &models.Notice{Kind: models.NoticeError, Message: msg},
	}
}

func unexpected(err error) Result {
	return failure(OutcomeFailed, msgUnexpectedBase+" "+err.Error())
}
