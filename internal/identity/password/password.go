// Package password wraps bcrypt hashing for user credentials.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "gramsuvidha/pkg/domain-errors"
)

// MinLength is enforced wherever a new password is accepted.
const MinLength = 6

// Hash creates a bcrypt hash of the provided password. The digest embeds its
// own salt and cost; it is never reversible.
func Hash(pw string) (string, error) {
	if pw == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeBadRequest, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext password against a bcrypt digest. The comparison
// is constant-time within bcrypt itself.
func Verify(pw, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(pw)) == nil
}
