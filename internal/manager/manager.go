package manager

import (
	"context"

	"github.com/Goofygiraffe06/prepwise/internal/config"
	"github.com/Goofygiraffe06/prepwise/internal/workerpool"
)

// WorkManager keeps SQLite writes, password hashing and outgoing mail on separate
// bounded pools so one slow concern cannot starve the HTTP handlers of the others.
type WorkManager struct {
	db     *workerpool.Pool
	crypto *workerpool.Pool
	smtp   *workerpool.Pool
}

// Option configures the WorkManager.
type Option func(*options)

type options struct {
	dbWorkers     int
	cryptoWorkers int
	smtpWorkers   int
	queueSize     int
}

// WithDBWorkers sets the DB worker count.
func WithDBWorkers(n int) Option { return func(o *options) { o.dbWorkers = n } }

// WithCryptoWorkers sets the crypto worker count.
func WithCryptoWorkers(n int) Option { return func(o *options) { o.cryptoWorkers = n } }

// WithSMTPWorkers sets the SMTP worker count.
func WithSMTPWorkers(n int) Option { return func(o *options) { o.smtpWorkers = n } }

// WithQueueSize sets the queue size of every pool.
func WithQueueSize(n int) Option { return func(o *options) { o.queueSize = n } }

// NewWorkManager constructs the manager with the given options (or defaults from config).
func NewWorkManager(opts ...Option) *WorkManager {
	o := &options{
		dbWorkers:     config.DBWorkerCount(),
		cryptoWorkers: config.CryptoWorkerCount(),
		smtpWorkers:   config.SMTPWorkerCount(),
		queueSize:     config.WorkerQueueSize(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &WorkManager{
		db:     workerpool.New("db", o.dbWorkers, o.queueSize),
		crypto: workerpool.New("crypto", o.cryptoWorkers, o.queueSize),
		smtp:   workerpool.New("smtp", o.smtpWorkers, o.queueSize),
	}
}

// Close shuts down all pools.
func (m *WorkManager) Close() {
	if m == nil {
		return
	}
	m.db.Close()
	m.crypto.Close()
	m.smtp.Close()
}

// RunDB runs a store operation on the DB pool and waits for its result.
func (m *WorkManager) RunDB(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.Run(ctx, fn)
}

// RunCrypto runs a CPU-heavy operation such as bcrypt on the crypto pool and waits.
func (m *WorkManager) RunCrypto(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.crypto.Run(ctx, fn)
}

// SubmitSMTP schedules outgoing mail without waiting.
func (m *WorkManager) SubmitSMTP(fn func(ctx context.Context)) error {
	return m.smtp.Submit(fn)
}
