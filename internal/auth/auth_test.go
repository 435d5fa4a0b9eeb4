package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIDTokenRoundTrip(t *testing.T) {
	key, err := auth.NewSigningKey()
	require.NoError(t, err)

	token, exp, err := auth.IssueIDToken(key, "issuer", "uid-1", "ann@x.com", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := auth.ParseIDToken(key, "issuer", token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "ann@x.com", claims.Email)
}

func TestParseIDTokenRejects(t *testing.T) {
	key, err := auth.NewSigningKey()
	require.NoError(t, err)
	other, err := auth.NewSigningKey()
	require.NoError(t, err)

	valid, _, err := auth.IssueIDToken(key, "issuer", "uid-1", "ann@x.com", time.Hour)
	require.NoError(t, err)
	expired, _, err := auth.IssueIDToken(key, "issuer", "uid-1", "ann@x.com", -time.Minute)
	require.NoError(t, err)
	hs, err := auth.IssueSessionToken([]byte("secret"), "issuer", "sid", "uid-1", "ann@x.com", time.Now().Add(time.Hour))
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := auth.ParseIDToken(other, "issuer", valid)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		_, err := auth.ParseIDToken(key, "someone-else", valid)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})
	t.Run("expired", func(t *testing.T) {
		_, err := auth.ParseIDToken(key, "issuer", expired)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})
	t.Run("hmac token", func(t *testing.T) {
		_, err := auth.ParseIDToken(key, "issuer", hs)
		assert.Error(t, err)
	})
	t.Run("nil key", func(t *testing.T) {
		_, err := auth.ParseIDToken(nil, "issuer", valid)
		assert.ErrorIs(t, err, auth.ErrKeyNotInitialized)
	})
}

func TestSessionToken(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	exp := time.Now().Add(time.Hour)

	token, err := auth.IssueSessionToken(secret, "prepwise", "sid-1", "uid-1", "ann@x.com", exp)
	require.NoError(t, err)

	claims, err := auth.ParseSessionToken(secret, "prepwise", token)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.ID)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "ann@x.com", claims.Email)

	_, err = auth.ParseSessionToken([]byte("another-secret"), "prepwise", token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, auth.CheckPassword("secret1", hash))
	assert.ErrorIs(t, auth.CheckPassword("secret2", hash), auth.ErrPasswordMismatch)

	_, err = auth.HashPassword(strings.Repeat("a", 73), bcrypt.MinCost)
	assert.True(t, errors.Is(err, auth.ErrPasswordTooLong))
}

func TestGeneratedIDs(t *testing.T) {
	uid, err := auth.GenerateUID()
	require.NoError(t, err)
	assert.Len(t, uid, 28)

	sid, err := auth.GenerateSessionID()
	require.NoError(t, err)
	assert.Len(t, sid, 64)

	again, err := auth.GenerateSessionID()
	require.NoError(t, err)
	assert.NotEqual(t, sid, again)
}
