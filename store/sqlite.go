package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/models"
	"github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var (
	// ErrUserExists means a user record with the same uid is already present.
	ErrUserExists = errors.New("user already exists")
	// ErrEmailInUse means another uid already owns the email.
	ErrEmailInUse = errors.New("email already in use")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	uid TEXT PRIMARY KEY NOT NULL CHECK(uid <> ''),
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE CHECK(email <> ''),
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS credentials (
	uid TEXT PRIMARY KEY NOT NULL CHECK(uid <> ''),
	email TEXT NOT NULL UNIQUE CHECK(email <> ''),
	password_hash TEXT NOT NULL CHECK(password_hash <> '')
);`

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddUser(ctx context.Context, user models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (uid, name, email, created_at)
		VALUES (?, ?, ?, ?)`,
		user.UID, user.Name, user.Email, user.CreatedAt.Unix())
	return translateConstraint(err, ErrUserExists)
}

func (s *SQLiteStore) GetUserByUID(ctx context.Context, uid string) (models.User, bool) {
	return s.getUser(ctx, `SELECT uid, name, email, created_at FROM users WHERE uid = ?`, uid)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (models.User, bool) {
	return s.getUser(ctx, `SELECT uid, name, email, created_at FROM users WHERE email = ?`, email)
}

func (s *SQLiteStore) getUser(ctx context.Context, query, arg string) (models.User, bool) {
	var (
		user    models.User
		created int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&user.UID, &user.Name, &user.Email, &created)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.ErrorLog("store.getUser error: %v", err)
		}
		return models.User{}, false
	}
	user.CreatedAt = time.Unix(created, 0)
	return user, true
}

func (s *SQLiteStore) AddCredential(ctx context.Context, cred models.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (uid, email, password_hash)
		VALUES (?, ?, ?)`,
		cred.UID, cred.Email, cred.PasswordHash)
	return translateConstraint(err, ErrUserExists)
}

func (s *SQLiteStore) GetCredential(ctx context.Context, email string) (models.Credential, bool) {
	var cred models.Credential
	err := s.db.QueryRowContext(ctx, `
		SELECT uid, email, password_hash
		FROM credentials
		WHERE email = ?`, email).Scan(&cred.UID, &cred.Email, &cred.PasswordHash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.ErrorLog("store.GetCredential error: %v", err)
		}
		return models.Credential{}, false
	}
	return cred, true
}

// DeleteCredential removes the credential for uid. Deleting a missing uid is not an error.
func (s *SQLiteStore) DeleteCredential(ctx context.Context, uid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE uid = ?`, uid)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// translateConstraint maps a primary key violation to pkErr and a unique
// violation (the email column) to ErrEmailInUse.
func translateConstraint(err, pkErr error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey:
			return pkErr
		case sqlite3.ErrConstraintUnique:
			return ErrEmailInUse
		}
	}
	return err
}
