// Package auth protects the admin endpoints with HTTP basic auth checked
// against a bcrypt hash.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDisabled     = errors.New("admin access disabled")
	ErrUnauthorized = errors.New("unauthorized")
)

type Guard struct {
	user string
	hash []byte
}

// NewGuard returns a guard for user. An empty hash disables admin access.
func NewGuard(user, passwordHash string) (*Guard, error) {
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
	}
	return &Guard{user: user, hash: []byte(passwordHash)}, nil
}

func (g *Guard) Enabled() bool {
	return g != nil && len(g.hash) > 0
}

// Check validates the request's basic-auth credentials.
func (g *Guard) Check(r *http.Request) error {
	if !g.Enabled() {
		return ErrDisabled
	}
	user, password, ok := r.BasicAuth()
	if !ok {
		return ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(g.user)) == 1
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil || !userOK {
		return ErrUnauthorized
	}
	return nil
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
