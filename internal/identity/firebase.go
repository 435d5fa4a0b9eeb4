package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/utils"
)

const (
	DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com"
	DefaultSecureTokenURL     = "https://securetoken.googleapis.com"

	// tokenRefreshSkew refreshes ID tokens this long before they expire.
	tokenRefreshSkew = 60 * time.Second
)

// Firebase talks to the Identity Toolkit REST API, which is the only way to sign
// in with a password server side; the Admin SDK can create users but not sign them in.
type Firebase struct {
	apiKey      string
	client      *http.Client
	toolkitURL  string
	secureToken string
	now         func() time.Time
}

var _ Provider = (*Firebase)(nil)

type FirebaseOption func(*Firebase)

// WithHTTPClient replaces the default client (which carries the configured timeout).
func WithHTTPClient(c *http.Client) FirebaseOption {
	return func(f *Firebase) { f.client = c }
}

// WithEndpoints points the provider at another host, e.g. the Firebase auth emulator.
func WithEndpoints(identityToolkitURL, secureTokenURL string) FirebaseOption {
	return func(f *Firebase) {
		f.toolkitURL = strings.TrimRight(identityToolkitURL, "/")
		f.secureToken = strings.TrimRight(secureTokenURL, "/")
	}
}

func NewFirebase(apiKey string, timeout time.Duration, opts ...FirebaseOption) *Firebase {
	f := &Firebase{
		apiKey:      apiKey,
		client:      &http.Client{Timeout: timeout},
		toolkitURL:  DefaultIdentityToolkitURL,
		secureToken: DefaultSecureTokenURL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type firebaseErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Firebase) CreateAccount(ctx context.Context, email, password string) (*UserCredential, error) {
	var resp passwordResponse
	if err := f.postJSON(ctx, "accounts:signUp", passwordRequest{email, password, true}, &resp); err != nil {
		logging.WarnLog("Firebase identity: sign up failed [%s]: %v", utils.HashEmail(email), err)
		return nil, err
	}
	return &UserCredential{UID: resp.LocalID, Email: resp.Email}, nil
}

func (f *Firebase) Authenticate(ctx context.Context, email, password string) (Session, error) {
	var resp passwordResponse
	if err := f.postJSON(ctx, "accounts:signInWithPassword", passwordRequest{email, password, true}, &resp); err != nil {
		logging.WarnLog("Firebase identity: sign in failed [%s]: %v", utils.HashEmail(email), err)
		return nil, err
	}
	return &firebaseSession{
		provider:     f,
		uid:          resp.LocalID,
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    f.now().Add(parseExpiresIn(resp.ExpiresIn)),
	}, nil
}

func (f *Firebase) postJSON(ctx context.Context, method string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	endpoint := f.toolkitURL + "/v1/" + method + "?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return f.do(req, out)
}

func (f *Firebase) refresh(ctx context.Context, refreshToken string) (*refreshResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := f.secureToken + "/v1/token?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp refreshResponse
	if err := f.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (f *Firebase) do(req *http.Request, out any) error {
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("firebase request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("firebase response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return mapFirebaseError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("firebase response: %w", err)
	}
	return nil
}

// mapFirebaseError turns {"error":{"message":"CODE : detail"}} into a sentinel where one exists.
func mapFirebaseError(status int, data []byte) error {
	var body firebaseErrorBody
	code := "UNKNOWN"
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		code, _, _ = strings.Cut(body.Error.Message, " ")
	}

	switch code {
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredentials
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return ErrInvalidEmail
	case "WEAK_PASSWORD", "MISSING_PASSWORD":
		return ErrWeakPassword
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "INVALID_ID_TOKEN":
		return ErrInvalidToken
	}
	return &ProviderError{Provider: "firebase", Status: status, Code: code}
}

func parseExpiresIn(s string) time.Duration {
	secs, err := strconv.Atoi(s)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

type firebaseSession struct {
	provider *Firebase
	uid      string

	mu           sync.Mutex
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

func (s *firebaseSession) UID() string { return s.uid }

func (s *firebaseSession) IDToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idToken != "" && s.provider.now().Add(tokenRefreshSkew).Before(s.expiresAt) {
		return s.idToken, nil
	}
	if s.refreshToken == "" {
		if s.provider.now().Before(s.expiresAt) {
			return s.idToken, nil
		}
		return "", nil
	}

	resp, err := s.provider.refresh(ctx, s.refreshToken)
	if err != nil {
		return "", err
	}
	s.idToken = resp.IDToken
	if resp.RefreshToken != "" {
		s.refreshToken = resp.RefreshToken
	}
	s.expiresAt = s.provider.now().Add(parseExpiresIn(resp.ExpiresIn))
	return s.idToken, nil
}
