package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgNameTooShort     = "Name must be at least 3 characters"
	MsgInvalidEmail     = "Invalid email address"
	MsgPasswordTooShort = "Password must be at least 6 characters"
)

// Credentials are the raw form fields of one submission. Name is ignored on sign-in.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// FieldErrors maps a form field ("name", "email", "password") to its inline message.
type FieldErrors map[string]string

// signUpFields and signInFields are the two schema variants; each carries its own required set.
type signUpFields struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type signInFields struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// One message per field whichever rule failed: an empty name is also "too short".
var fieldMessages = map[string]string{
	"name":     MsgNameTooShort,
	"email":    MsgInvalidEmail,
	"password": MsgPasswordTooShort,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Schema validates Credentials for one Mode.
type Schema struct {
	mode Mode
}

// ResolveSchema returns the schema for mode. It has no side effects.
func ResolveSchema(mode Mode) (Schema, error) {
	switch mode {
	case ModeSignUp, ModeSignIn:
		return Schema{mode: mode}, nil
	default:
		return Schema{}, fmt.Errorf("no schema for %v", mode)
	}
}

func (s Schema) Mode() Mode { return s.mode }

// Fields lists the fields the schema requires, in display order.
func (s Schema) Fields() []string {
	switch s.mode {
	case ModeSignUp:
		return []string{"name", "email", "password"}
	case ModeSignIn:
		return []string{"email", "password"}
	default:
		return nil
	}
}

// Validate returns nil when c satisfies the schema.
func (s Schema) Validate(c Credentials) FieldErrors {
	var target any
	switch s.mode {
	case ModeSignUp:
		target = signUpFields{Name: c.Name, Email: c.Email, Password: c.Password}
	case ModeSignIn:
		target = signInFields{Email: c.Email, Password: c.Password}
	default:
		panic(fmt.Sprintf("form: validate with unresolved schema %v", s.mode))
	}

	err := validate.Struct(target)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		panic(fmt.Sprintf("form: validator misconfigured: %v", err))
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessages[fe.Field()]
	}
	return out
}
