package form

import "fmt"

// Mode is the auth flow a form instance represents. It is fixed at construction.
type Mode int

const (
	ModeSignUp Mode = iota + 1
	ModeSignIn
)

func (m Mode) String() string {
	switch m {
	case ModeSignUp:
		return "sign-up"
	case ModeSignIn:
		return "sign-in"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "sign-up" and "sign-in".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "sign-up":
		return ModeSignUp, nil
	case "sign-in":
		return ModeSignIn, nil
	default:
		return 0, fmt.Errorf("unknown form mode %q", s)
	}
}
