package models

// AuthFormRequest is the JSON body posted by the sign-up and sign-in forms.
// Name is ignored on sign-in.
type AuthFormRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountRecord is forwarded to the account registration collaborator after the
// identity provider created the account.
type AccountRecord struct {
	UID      string
	Name     string
	Email    string
	Password string
}

// RegistrationResult is what account registration reports back.
type RegistrationResult struct {
	Success bool
	Message string
}

// SessionRequest is forwarded to session establishment after a successful sign-in.
type SessionRequest struct {
	Email   string
	IDToken string
}
