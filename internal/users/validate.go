package users

import (
	"regexp"
	"strings"

	"notekeeper/internal/library"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const passwordSpecials = "@$!%*?&"

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return library.Validationf("email is not a valid address")
	}
	return nil
}

// validatePassword enforces the strong-password policy: at least 8
// characters drawn from letters, digits and @$!%*?&, with at least one lower,
// one upper, one digit and one special.
func validatePassword(pwd string) error {
	var lower, upper, digit, special bool
	for _, r := range pwd {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return library.Validationf("password may only contain letters, digits and %s", passwordSpecials)
		}
	}
	if len(pwd) < 8 || !lower || !upper || !digit || !special {
		return library.Validationf("password must be at least 8 characters and include a lowercase letter, an uppercase letter, a digit and one of %s", passwordSpecials)
	}
	return nil
}
