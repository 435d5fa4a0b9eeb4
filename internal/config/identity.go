package config

import "time"

const (
	IdentityProviderLocal    = "local"
	IdentityProviderFirebase = "firebase"
)

// IdentityProvider selects the identity backend: "local" or "firebase".
func IdentityProvider() string {
	return GetEnv("IDENTITY_PROVIDER", IdentityProviderLocal)
}

// IDTokenIssuer is the iss/aud of ID tokens minted by the local provider.
func IDTokenIssuer() string {
	return GetEnv("ID_TOKEN_ISSUER", "prepwise-identity")
}

func IDTokenExpiresIn() time.Duration {
	return MustParseDuration("ID_TOKEN_EXPIRES_IN", "1h")
}

// BcryptCost is the work factor for local password hashes.
func BcryptCost() int {
	return parseIntEnv("BCRYPT_COST", 12)
}

func FirebaseAPIKey() string {
	return MustGetEnv("FIREBASE_API_KEY")
}

func FirebaseProjectID() string {
	return MustGetEnv("FIREBASE_PROJECT_ID")
}

// FirebaseCredentialsFile is a service account JSON; empty means application default credentials.
func FirebaseCredentialsFile() string {
	return GetEnv("FIREBASE_CREDENTIALS_FILE", "")
}

// IdentityHTTPTimeout bounds every call to a remote identity provider.
func IdentityHTTPTimeout() time.Duration {
	return MustParseDuration("IDENTITY_HTTP_TIMEOUT", "10s")
}
