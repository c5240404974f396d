package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt fails.
// The same error covers unknown usernames and wrong passwords so the
// response does not reveal which part was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Credential is the bootstrap admin credential loaded from configuration.
type Credential struct {
	// Username is the admin username.
	Username string

	// PasswordHash is the bcrypt hash of the admin password.
	PasswordHash string
}

// Verify checks a username/password pair against the credential.
func (c Credential) Verify(username, password string) error {
	if username != c.Username || c.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword produces a bcrypt hash suitable for Credential.PasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
