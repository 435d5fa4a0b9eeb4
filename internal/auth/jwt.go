package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrKeyNotInitialized = errors.New("signing key not initialized")

// IDTokenClaims are carried by ID tokens of the local identity provider.
type IDTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionClaims are carried by session tokens. ID holds the session id.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueIDToken signs an EdDSA ID token for uid.
func IssueIDToken(key *SigningKey, issuer, uid, email string, ttl time.Duration) (string, time.Time, error) {
	if key == nil || key.PrivateKey == nil {
		return "", time.Time{}, ErrKeyNotInitialized
	}

	now := time.Now()
	exp := now.Add(ttl)
	claims := IDTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key.PrivateKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// ParseIDToken verifies an EdDSA ID token and returns its claims.
func ParseIDToken(key *SigningKey, issuer, tokenStr string) (*IDTokenClaims, error) {
	if key == nil || key.PublicKey == nil {
		return nil, ErrKeyNotInitialized
	}

	claims := &IDTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return key.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}
	return claims, nil
}

// IssueSessionToken signs an HS256 session token whose jti is sessionID.
func IssueSessionToken(secret []byte, issuer, sessionID, uid, email string, exp time.Time) (string, error) {
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   uid,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseSessionToken verifies an HS256 session token.
func ParseSessionToken(secret []byte, issuer, tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, jwt.ErrTokenInvalidId
	}
	return claims, nil
}
