package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blitiri.com.ar/go/spf"
	"github.com/Goofygiraffe06/prepwise/api"
	"github.com/Goofygiraffe06/prepwise/internal/account"
	"github.com/Goofygiraffe06/prepwise/internal/auth"
	"github.com/Goofygiraffe06/prepwise/internal/config"
	"github.com/Goofygiraffe06/prepwise/internal/form"
	"github.com/Goofygiraffe06/prepwise/internal/identity"
	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/mail"
	"github.com/Goofygiraffe06/prepwise/internal/manager"
	"github.com/Goofygiraffe06/prepwise/internal/session"
	"github.com/Goofygiraffe06/prepwise/store"
	"github.com/Goofygiraffe06/prepwise/store/ephemeral"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const maxSessions = 100000

func main() {
	f, err := logging.InitLogger(config.LogFile())
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer f.Close()
	defer logging.Sync()

	logging.InfoLog("Starting prepwise server")

	// Secure SQLite DB file if it exists
	dbFile := config.DBPath()
	if _, err := os.Stat(dbFile); err == nil {
		if err := os.Chmod(dbFile, 0600); err != nil {
			logging.ErrorLog("Failed to set restrictive permissions on %s: %v", dbFile, err)
		} else {
			logging.DebugLog("Permissions on %s set to 0600", dbFile)
		}
	}

	userStore, err := store.NewSQLiteStore(dbFile)
	if err != nil {
		logging.FatalLog("Failed to connect to DB: %v", err)
	}
	defer userStore.Close()
	logging.InfoLog("Connected to SQLite database: %s", dbFile)

	mgr := manager.NewWorkManager()
	defer mgr.Close()

	provider, verifier := newIdentity(userStore, mgr)

	var welcome account.WelcomeSender
	if mailer := newMailer(); mailer != nil {
		welcome = mailer
	}
	registrar := account.NewRegistrar(userStore, mgr, welcome)

	sessionStore := ephemeral.NewSessionStore(maxSessions)
	defer sessionStore.Close()
	issuer := session.NewIssuer(verifier, userStore, sessionStore, session.Options{
		Secret: []byte(config.JWTSecret()),
		Issuer: config.JWTIssuer(),
		TTL:    config.JWTExpiresIn(),
	})

	signUp, err := form.New(form.ModeSignUp, provider, registrar, nil)
	if err != nil {
		logging.FatalLog("Failed to build sign-up form: %v", err)
	}
	signIn, err := form.New(form.ModeSignIn, provider, nil, issuer)
	if err != nil {
		logging.FatalLog("Failed to build sign-in form: %v", err)
	}

	cookie := api.CookieConfig{Name: config.SessionCookieName(), Secure: config.SessionCookieSecure()}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestSize(config.MaxRequestBodyBytes()))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", api.HealthHandler())
	router.Post("/sign-up", api.AuthFormHandler(signUp, cookie))
	router.Post("/sign-in", api.AuthFormHandler(signIn, cookie))
	router.Get("/session", api.SessionHandler(issuer, cookie))
	router.Post("/sign-out", api.SignOutHandler(issuer, cookie))

	srv := &http.Server{
		Addr:              ":" + config.Port(),
		Handler:           router,
		ReadTimeout:       config.ServerReadTimeout(),
		ReadHeaderTimeout: config.ServerReadHeaderTimeout(),
		WriteTimeout:      config.ServerWriteTimeout(),
		IdleTimeout:       config.ServerIdleTimeout(),
	}

	go func() {
		logging.InfoLog("prepwise server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.FatalLog("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logging.InfoLog("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.ErrorLog("Graceful shutdown failed: %v", err)
	}
}

// newIdentity picks the identity provider and the matching ID token verifier.
func newIdentity(userStore *store.SQLiteStore, mgr *manager.WorkManager) (identity.Provider, identity.TokenVerifier) {
	switch config.IdentityProvider() {
	case config.IdentityProviderFirebase:
		provider := identity.NewFirebase(config.FirebaseAPIKey(), config.IdentityHTTPTimeout())
		verifier, err := identity.NewFirebaseVerifier(context.Background(), config.FirebaseProjectID(), config.FirebaseCredentialsFile())
		if err != nil {
			logging.FatalLog("Failed to initialize Firebase: %v", err)
		}
		logging.InfoLog("Identity provider: firebase")
		return provider, verifier

	case config.IdentityProviderLocal:
		key, err := auth.NewSigningKey()
		if err != nil {
			logging.FatalLog("Failed to generate signing key: %v", err)
		}
		local := identity.NewLocal(userStore, mgr, key, identity.LocalOptions{
			Issuer:     config.IDTokenIssuer(),
			TokenTTL:   config.IDTokenExpiresIn(),
			BcryptCost: config.BcryptCost(),
		})
		logging.InfoLog("Identity provider: local")
		return local, local

	default:
		logging.FatalLog("Unknown IDENTITY_PROVIDER %q", config.IdentityProvider())
		return nil, nil
	}
}

// newMailer returns nil when no relay is configured.
func newMailer() *mail.Mailer {
	relay := config.SMTPRelayAddr()
	if relay == "" {
		logging.InfoLog("SMTP relay not configured, welcome mail disabled")
		return nil
	}

	var signer *mail.DKIMSigner
	if domain, keyFile := config.DKIMDomain(), config.DKIMKeyFile(); domain != "" && keyFile != "" {
		s, err := mail.LoadDKIMSigner(domain, config.DKIMSelector(), keyFile)
		if err != nil {
			logging.FatalLog("Failed to load DKIM key: %v", err)
		}
		signer = s
	}

	tlsMode, err := mail.ParseTLSMode(config.SMTPTLS())
	if err != nil {
		logging.FatalLog("Invalid SMTP_TLS: %v", err)
	}

	checkSenderPolicy(relay, config.SMTPFrom())

	return mail.NewMailer(mail.Config{
		RelayAddr: relay,
		From:      config.SMTPFrom(),
		Username:  config.SMTPUsername(),
		Password:  config.SMTPPassword(),
		TLS:       tlsMode,
		Signer:    signer,
	})
}

// checkSenderPolicy warns, or exits when SMTP_REQUIRE_SPF is set, if the From domain's
// SPF record does not authorize the relay.
func checkSenderPolicy(relay, from string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := mail.NewSenderPolicy(nil).Check(ctx, relay, from)
	if res == spf.Pass {
		logging.InfoLog("SPF policy of sender domain authorizes relay %s", relay)
		return
	}
	if config.SMTPRequireSPF() {
		logging.FatalLog("SPF policy of sender domain does not authorize relay %s: %s (%v)", relay, res, err)
	}
	logging.WarnLog("SPF policy of sender domain does not authorize relay %s: %s (%v)", relay, res, err)
}
