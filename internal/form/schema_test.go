package form_test

import (
	"strings"
	"testing"

	"github.com/Goofygiraffe06/prepwise/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := form.ParseMode("sign-up")
	require.NoError(t, err)
	assert.Equal(t, form.ModeSignUp, m)

	m, err = form.ParseMode("sign-in")
	require.NoError(t, err)
	assert.Equal(t, form.ModeSignIn, m)
	assert.Equal(t, "sign-in", m.String())

	_, err = form.ParseMode("sign-out")
	assert.Error(t, err)
}

func TestResolveSchemaUnknownMode(t *testing.T) {
	_, err := form.ResolveSchema(form.Mode(42))
	assert.Error(t, err)
}

func TestSchemaFields(t *testing.T) {
	up, err := form.ResolveSchema(form.ModeSignUp)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email", "password"}, up.Fields())

	in, err := form.ResolveSchema(form.ModeSignIn)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "password"}, in.Fields())
}

func TestSchemaValidate(t *testing.T) {
	valid := form.Credentials{Name: "Ann", Email: "ann@x.com", Password: "secret1"}

	tests := []struct {
		name  string
		mode  form.Mode
		creds form.Credentials
		want  form.FieldErrors
	}{
		{"sign-up valid", form.ModeSignUp, valid, nil},
		{"sign-in valid without name", form.ModeSignIn, form.Credentials{Email: "ann@x.com", Password: "secret1"}, nil},
		{"sign-in ignores short name", form.ModeSignIn, form.Credentials{Name: "A", Email: "ann@x.com", Password: "secret1"}, nil},
		{
			"sign-up short name", form.ModeSignUp,
			form.Credentials{Name: "An", Email: "ann@x.com", Password: "secret1"},
			form.FieldErrors{"name": form.MsgNameTooShort},
		},
		{
			"sign-up missing name", form.ModeSignUp,
			form.Credentials{Email: "ann@x.com", Password: "secret1"},
			form.FieldErrors{"name": form.MsgNameTooShort},
		},
		{
			"sign-up multibyte name counts characters", form.ModeSignUp,
			form.Credentials{Name: "Zoë", Email: "zoe@x.com", Password: "secret1"},
			nil,
		},
		{
			"email without at sign", form.ModeSignIn,
			form.Credentials{Email: "ann.x.com", Password: "secret1"},
			form.FieldErrors{"email": form.MsgInvalidEmail},
		},
		{
			"padded email is not trimmed by the schema", form.ModeSignIn,
			form.Credentials{Email: " ann@x.com", Password: "secret1"},
			form.FieldErrors{"email": form.MsgInvalidEmail},
		},
		{
			"empty email", form.ModeSignUp,
			form.Credentials{Name: "Ann", Password: "secret1"},
			form.FieldErrors{"email": form.MsgInvalidEmail},
		},
		{
			"short password", form.ModeSignUp,
			form.Credentials{Name: "Ann", Email: "ann@x.com", Password: "12345"},
			form.FieldErrors{"password": form.MsgPasswordTooShort},
		},
		{
			"everything wrong on sign-up", form.ModeSignUp,
			form.Credentials{},
			form.FieldErrors{
				"name":     form.MsgNameTooShort,
				"email":    form.MsgInvalidEmail,
				"password": form.MsgPasswordTooShort,
			},
		},
		{
			"everything wrong on sign-in", form.ModeSignIn,
			form.Credentials{},
			form.FieldErrors{
				"email":    form.MsgInvalidEmail,
				"password": form.MsgPasswordTooShort,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := form.ResolveSchema(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, schema.Validate(tt.creds))
		})
	}
}

// Property checks over a spread of inputs for both modes.
func TestSchemaProperties(t *testing.T) {
	up, _ := form.ResolveSchema(form.ModeSignUp)
	in, _ := form.ResolveSchema(form.ModeSignIn)

	for n := 0; n < 3; n++ {
		name := strings.Repeat("a", n)
		errs := up.Validate(form.Credentials{Name: name, Email: "ann@x.com", Password: "secret1"})
		assert.Equal(t, form.MsgNameTooShort, errs["name"], "name length %d", n)
	}

	for _, email := range []string{"ann", "ann.x.com", "", "x.com", "ann at x.com"} {
		for _, s := range []form.Schema{up, in} {
			errs := s.Validate(form.Credentials{Name: "Ann", Email: email, Password: "secret1"})
			assert.Equal(t, form.MsgInvalidEmail, errs["email"], "email %q mode %v", email, s.Mode())
		}
	}

	for n := 0; n < 6; n++ {
		pw := strings.Repeat("p", n)
		for _, s := range []form.Schema{up, in} {
			errs := s.Validate(form.Credentials{Name: "Ann", Email: "ann@x.com", Password: pw})
			assert.Equal(t, form.MsgPasswordTooShort, errs["password"], "password length %d mode %v", n, s.Mode())
		}
	}

	for _, name := range []string{"", "A", "Ann", strings.Repeat("n", 50)} {
		errs := in.Validate(form.Credentials{Name: name, Email: "ann@x.com", Password: "secret1"})
		assert.NotContains(t, errs, "name")
	}
}
