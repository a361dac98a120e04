package service

import (
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with a one-way salted scheme.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// NewPasswordHasher returns the hasher named by PASSWORD_HASHER. Any hasher
// verifies hashes from either scheme, so switching algorithms keeps old accounts working.
func NewPasswordHasher(name string) PasswordHasher {
	if strings.EqualFold(name, "argon2id") {
		return argon2Hasher{params: argon2id.DefaultParams}
	}
	return bcryptHasher{cost: bcrypt.DefaultCost}
}

type bcryptHasher struct {
	cost int
}

func (h bcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h bcryptHasher) Verify(password, hash string) (bool, error) {
	return verifyPassword(password, hash)
}

type argon2Hasher struct {
	params *argon2id.Params
}

func (h argon2Hasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.params)
}

func (h argon2Hasher) Verify(password, hash string) (bool, error) {
	return verifyPassword(password, hash)
}

func verifyPassword(password, hash string) (bool, error) {
	if strings.HasPrefix(hash, "$argon2id$") {
		return argon2id.ComparePasswordAndHash(password, hash)
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch err {
	case nil:
		return true, nil
	case bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, err
	}
}
