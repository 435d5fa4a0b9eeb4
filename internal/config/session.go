package config

import "time"

// JWTSecret signs session tokens (HS256).
func JWTSecret() string {
	return MustGetEnv("JWT_SECRET")
}

func JWTIssuer() string {
	return GetEnv("JWT_ISSUER", "prepwise")
}

func JWTExpiresIn() time.Duration {
	return MustParseDuration("JWT_EXPIRES_IN", "120h")
}

func SessionCookieName() string {
	return GetEnv("SESSION_COOKIE_NAME", "session")
}

// SessionCookieSecure is false only when explicitly disabled for plain-HTTP development.
func SessionCookieSecure() bool {
	return GetEnv("SESSION_COOKIE_SECURE", "true") != "false"
}
