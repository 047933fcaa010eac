package auth

import (
	"unicode"

	passwordvalidator "github.com/wagslane/go-password-validator"

	"hiddenplaces/internal/domain"
)

const (
	MinPasswordLen = 6
	// minPasswordEntropy is the go-password-validator floor in bits.
	minPasswordEntropy = 30
)

// CheckPasswordRules returns a ValidationError on field "password" when the
// password is too short, lacks an upper-case letter or a digit, or is too
// predictable.
func CheckPasswordRules(pw string) error {
	if len([]rune(pw)) < MinPasswordLen {
		return domain.FieldError("password", "Password must be at least 6 characters long.")
	}
	var upper, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return domain.FieldError("password", "Password must contain an upper-case letter.")
	}
	if !digit {
		return domain.FieldError("password", "Password must contain a number.")
	}
	if err := passwordvalidator.Validate(pw, minPasswordEntropy); err != nil {
		return domain.FieldError("password", "Password is too easy to guess.")
	}
	return nil
}
