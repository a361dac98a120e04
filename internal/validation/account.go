// Package validation holds the input rules shared by services and seeders.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	UsernameMaxLength = 20
	EmailMaxLength    = 120
	// PasswordMaxBytes is the bcrypt input limit.
	PasswordMaxBytes = 72
	TitleMaxLength   = 100
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@.]+$`)

// ValidateUsername enforces the length limit and rejects whitespace or control characters.
func ValidateUsername(username string) error {
	if utf8.RuneCountInString(username) > UsernameMaxLength {
		return fmt.Errorf("Username must be at most %d characters.", UsernameMaxLength)
	}
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.New("Username cannot contain spaces.")
		}
	}
	return nil
}

// ValidateEmail checks the length limit and a basic local@domain.tld shape.
func ValidateEmail(email string) error {
	if utf8.RuneCountInString(email) > EmailMaxLength {
		return fmt.Errorf("Email must be at most %d characters.", EmailMaxLength)
	}
	if !emailRegex.MatchString(email) || strings.Count(email, "@") != 1 {
		return errors.New("Please enter a valid email address.")
	}
	return nil
}

// ValidatePassword bounds the password to what the hasher accepts.
func ValidatePassword(password string) error {
	if len(password) > PasswordMaxBytes {
		return fmt.Errorf("Password must be at most %d bytes.", PasswordMaxBytes)
	}
	return nil
}

// ValidateJobTitle enforces the title length limit.
func ValidateJobTitle(title string) error {
	if utf8.RuneCountInString(title) > TitleMaxLength {
		return fmt.Errorf("Title must be at most %d characters.", TitleMaxLength)
	}
	return nil
}
