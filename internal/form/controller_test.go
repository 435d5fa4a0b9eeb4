package form_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/form"
	"github.com/Goofygiraffe06/prepwise/internal/identity"
	"github.com/Goofygiraffe06/prepwise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	uid   string
	token string
	err   error
}

func (s *fakeSession) UID() string { return s.uid }

func (s *fakeSession) IDToken(context.Context) (string, error) { return s.token, s.err }

// fakeProvider records calls; block, when set, holds every call until it is closed.
type fakeProvider struct {
	mu        sync.Mutex
	creates   []string
	auths     []string
	createErr error
	authErr   error
	session   *fakeSession
	block     chan struct{}
	entered   chan struct{}
}

func (p *fakeProvider) wait() {
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.block != nil {
		<-p.block
	}
}

func (p *fakeProvider) CreateAccount(_ context.Context, email, _ string) (*identity.UserCredential, error) {
	p.wait()
	p.mu.Lock()
	p.creates = append(p.creates, email)
	p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	return &identity.UserCredential{UID: "uid-ann", Email: email}, nil
}

func (p *fakeProvider) Authenticate(_ context.Context, email, _ string) (identity.Session, error) {
	p.wait()
	p.mu.Lock()
	p.auths = append(p.auths, email)
	p.mu.Unlock()
	if p.authErr != nil {
		return nil, p.authErr
	}
	return p.session, nil
}

type fakeRegistrar struct {
	calls  []models.AccountRecord
	result models.RegistrationResult
	err    error
}

func (r *fakeRegistrar) RegisterAccount(_ context.Context, rec models.AccountRecord) (models.RegistrationResult, error) {
	r.calls = append(r.calls, rec)
	return r.result, r.err
}

type fakeSessions struct {
	calls []models.SessionRequest
	err   error
}

func (s *fakeSessions) EstablishSession(_ context.Context, req models.SessionRequest) (*models.Session, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Session{ID: "sid", Email: req.Email, Token: "session-token"}, nil
}

var (
	ann       = form.Credentials{Name: "Ann", Email: "ann@x.com", Password: "secret1"}
	annSignIn = form.Credentials{Email: "ann@x.com", Password: "secret1"}
)

func TestNewRequiresCollaborators(t *testing.T) {
	p := &fakeProvider{}
	_, err := form.New(form.ModeSignUp, p, nil, nil)
	assert.Error(t, err)
	_, err = form.New(form.ModeSignIn, p, nil, nil)
	assert.Error(t, err)
	_, err = form.New(form.ModeSignIn, nil, nil, &fakeSessions{})
	assert.Error(t, err)
	_, err = form.New(form.Mode(0), p, &fakeRegistrar{}, &fakeSessions{})
	assert.Error(t, err)
}

func TestSignUpSuccess(t *testing.T) {
	provider := &fakeProvider{}
	registrar := &fakeRegistrar{result: models.RegistrationResult{Success: true, Message: "ok"}}
	ctrl, err := form.New(form.ModeSignUp, provider, registrar, nil)
	require.NoError(t, err)

	res := ctrl.Submit(context.Background(), ann)

	assert.Equal(t, form.OutcomeSucceeded, res.Outcome)
	assert.Equal(t, &models.Notice{Kind: models.NoticeSuccess, Message: form.MsgSignUpSuccess}, res.Notice)
	assert.Equal(t, form.RedirectSignIn, res.Redirect)
	assert.Nil(t, res.Session)
	require.Len(t, registrar.calls, 1)
	assert.Equal(t, models.AccountRecord{UID: "uid-ann", Name: "Ann", Email: "ann@x.com", Password: "secret1"}, registrar.calls[0])
}

func TestSignInSuccess(t *testing.T) {
	provider := &fakeProvider{session: &fakeSession{uid: "uid-ann", token: "id-token"}}
	sessions := &fakeSessions{}
	ctrl, err := form.New(form.ModeSignIn, provider, nil, sessions)
	require.NoError(t, err)

	res := ctrl.Submit(context.Background(), annSignIn)

	assert.Equal(t, form.OutcomeSucceeded, res.Outcome)
	assert.Equal(t, &models.Notice{Kind: models.NoticeSuccess, Message: form.MsgSignInSuccess}, res.Notice)
	assert.Equal(t, form.RedirectHome, res.Redirect)
	require.NotNil(t, res.Session)
	assert.Equal(t, "session-token", res.Session.Token)
	assert.Equal(t, []models.SessionRequest{{Email: "ann@x.com", IDToken: "id-token"}}, sessions.calls)
}

func TestSignInMissingToken(t *testing.T) {
	provider := &fakeProvider{session: &fakeSession{uid: "uid-ann", token: ""}}
	sessions := &fakeSessions{}
	ctrl, err := form.New(form.ModeSignIn, provider, nil, sessions)
	require.NoError(t, err)

	res := ctrl.Submit(context.Background(), annSignIn)

	assert.Equal(t, form.OutcomeFailed, res.Outcome)
	assert.Equal(t, &models.Notice{Kind: models.NoticeError, Message: form.MsgSignInFailed}, res.Notice)
	assert.Empty(t, res.Redirect)
	assert.Empty(t, sessions.calls, "session collaborator must not be called without a token")
}

func TestProviderErrorsAreGenericFailures(t *testing.T) {
	boom := errors.New("network unreachable")

	tests := []struct {
		name string
		mode form.Mode
		p    *fakeProvider
		reg  *fakeRegistrar
		ses  *fakeSessions
		in   form.Credentials
		want string
	}{
		{
			name: "create account throws",
			mode: form.ModeSignUp,
			p:    &fakeProvider{createErr: identity.ErrEmailExists},
			reg:  &fakeRegistrar{},
			in:   ann,
			want: "An unexpected error occurred. " + identity.ErrEmailExists.Error(),
		},
		{
			name: "registration throws",
			mode: form.ModeSignUp,
			p:    &fakeProvider{},
			reg:  &fakeRegistrar{err: boom},
			in:   ann,
			want: "An unexpected error occurred. network unreachable",
		},
		{
			name: "authenticate throws",
			mode: form.ModeSignIn,
			p:    &fakeProvider{authErr: identity.ErrInvalidCredentials},
			ses:  &fakeSessions{},
			in:   annSignIn,
			want: "An unexpected error occurred. " + identity.ErrInvalidCredentials.Error(),
		},
		{
			name: "token retrieval throws",
			mode: form.ModeSignIn,
			p:    &fakeProvider{session: &fakeSession{err: boom}},
			ses:  &fakeSessions{},
			in:   annSignIn,
			want: "An unexpected error occurred. network unreachable",
		},
		{
			name: "session establishment throws",
			mode: form.ModeSignIn,
			p:    &fakeProvider{session: &fakeSession{token: "id-token"}},
			ses:  &fakeSessions{err: boom},
			in:   annSignIn,
			want: "An unexpected error occurred. network unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				reg form.AccountRegistrar
				ses form.SessionEstablisher
			)
			if tt.reg != nil {
				reg = tt.reg
			}
			if tt.ses != nil {
				ses = tt.ses
			}
			ctrl, err := form.New(tt.mode, tt.p, reg, ses)
			require.NoError(t, err)

			res := ctrl.Submit(context.Background(), tt.in)

			assert.Equal(t, form.OutcomeFailed, res.Outcome)
			require.NotNil(t, res.Notice)
			assert.Equal(t, models.NoticeError, res.Notice.Kind)
			assert.Equal(t, tt.want, res.Notice.Message)
			assert.Empty(t, res.Redirect)
			assert.Nil(t, res.Session)
		})
	}
}

func TestSignUpRegistrationRejected(t *testing.T) {
	registrar := &fakeRegistrar{result: models.RegistrationResult{Success: false, Message: "This email is already in use."}}
	ctrl, err := form.New(form.ModeSignUp, &fakeProvider{}, registrar, nil)
	require.NoError(t, err)

	res := ctrl.Submit(context.Background(), ann)

	assert.Equal(t, form.OutcomeFailed, res.Outcome)
	assert.Equal(t, "This email is already in use.", res.Notice.Message)
	assert.Empty(t, res.Redirect)
}

func TestValidationBlocksSubmission(t *testing.T) {
	provider := &fakeProvider{}
	registrar := &fakeRegistrar{}
	ctrl, err := form.New(form.ModeSignUp, provider, registrar, nil)
	require.NoError(t, err)

	res := ctrl.Submit(context.Background(), form.Credentials{Name: "An", Email: "ann@x.com", Password: "secret1"})

	assert.Equal(t, form.OutcomeInvalid, res.Outcome)
	assert.Equal(t, form.FieldErrors{"name": form.MsgNameTooShort}, res.Errors)
	assert.Nil(t, res.Notice)
	assert.Empty(t, res.Redirect)
	assert.Empty(t, provider.creates)
	assert.Empty(t, registrar.calls)
}

func TestSignInIgnoresName(t *testing.T) {
	provider := &fakeProvider{session: &fakeSession{token: "id-token"}}
	ctrl, err := form.New(form.ModeSignIn, provider, nil, &fakeSessions{})
	require.NoError(t, err)

	res := ctrl.Submit(context.Background(), form.Credentials{Name: "x", Email: " ann@x.com ", Password: "secret1"})
	assert.Equal(t, form.OutcomeSucceeded, res.Outcome)
	assert.Equal(t, []string{"ann@x.com"}, provider.auths)
}

func TestConcurrentSubmissionRejected(t *testing.T) {
	provider := &fakeProvider{
		session: &fakeSession{token: "id-token"},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 2),
	}
	ctrl, err := form.New(form.ModeSignIn, provider, nil, &fakeSessions{})
	require.NoError(t, err)

	first := make(chan form.Result, 1)
	go func() { first <- ctrl.Submit(context.Background(), annSignIn) }()

	select {
	case <-provider.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the provider")
	}

	dup := ctrl.Submit(context.Background(), form.Credentials{Email: "ANN@x.com", Password: "secret1"})
	assert.Equal(t, form.OutcomeBusy, dup.Outcome)
	assert.Equal(t, form.MsgInFlight, dup.Notice.Message)
	assert.Empty(t, dup.Redirect)

	close(provider.block)
	res := <-first
	assert.Equal(t, form.OutcomeSucceeded, res.Outcome)

	again := ctrl.Submit(context.Background(), annSignIn)
	assert.Equal(t, form.OutcomeSucceeded, again.Outcome, "lock must be released after completion")
}

func TestSubmitTrimsEmailBeforeValidation(t *testing.T) {
	provider := &fakeProvider{}
	registrar := &fakeRegistrar{result: models.RegistrationResult{Success: true}}
	ctrl, err := form.New(form.ModeSignUp, provider, registrar, nil)
	require.NoError(t, err)

	res := ctrl.Submit(context.Background(), form.Credentials{Name: "Ann", Email: "  ann@x.com\t", Password: "secret1"})

	assert.Equal(t, form.OutcomeSucceeded, res.Outcome)
	assert.Equal(t, []string{"ann@x.com"}, provider.creates)
	require.Len(t, registrar.calls, 1)
	assert.Equal(t, "ann@x.com", registrar.calls[0].Email)
}

// removingProvider can undo CreateAccount.
type removingProvider struct {
	fakeProvider
	deleted []string
}

func (p *removingProvider) DeleteAccount(_ context.Context, uid string) error {
	p.deleted = append(p.deleted, uid)
	return nil
}

func TestSignUpRemovesAccountWhenRegistrationFails(t *testing.T) {
	tests := []struct {
		name string
		reg  *fakeRegistrar
	}{
		{"registration rejected", &fakeRegistrar{result: models.RegistrationResult{Success: false, Message: "Failed to create an account"}}},
		{"registration errored", &fakeRegistrar{err: errors.New("disk full")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &removingProvider{}
			ctrl, err := form.New(form.ModeSignUp, provider, tt.reg, nil)
			require.NoError(t, err)

			res := ctrl.Submit(context.Background(), ann)

			assert.Equal(t, form.OutcomeFailed, res.Outcome)
			assert.Equal(t, []string{"uid-ann"}, provider.deleted)
		})
	}
}

func TestSignUpKeepsAccountOnSuccess(t *testing.T) {
	provider := &removingProvider{}
	registrar := &fakeRegistrar{result: models.RegistrationResult{Success: true}}
	ctrl, err := form.New(form.ModeSignUp, provider, registrar, nil)
	require.NoError(t, err)

	res := ctrl.Submit(context.Background(), ann)

	assert.Equal(t, form.OutcomeSucceeded, res.Outcome)
	assert.Empty(t, provider.deleted)
}
