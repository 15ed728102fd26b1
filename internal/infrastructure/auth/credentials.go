package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/iho/bookd/internal/domain"
)

// Credential is one configured API user.
type Credential struct {
	UserID   string
	Email    string
	Password string
	Role     domain.Role
}

// Credentials is the configured user set.
type Credentials []Credential

// ParseCredentials parses the AUTH_USERS format: comma-separated
// "email:password:role" triples, e.g.
// "books@example.com:secret:bookkeeper,audit@example.com:secret:auditor".
func ParseCredentials(s string) (Credentials, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out Credentials
	for i, entry := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("credential %d: want email:password:role, got %q", i+1, entry)
		}
		role := domain.Role(parts[2])
		if !role.IsValid() {
			return nil, fmt.Errorf("credential %d: unknown role %q", i+1, parts[2])
		}
		if parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("credential %d: empty email or password", i+1)
		}
		out = append(out, Credential{
			UserID:   fmt.Sprintf("user-%d", i+1),
			Email:    parts[0],
			Password: parts[1],
			Role:     role,
		})
	}
	return out, nil
}

// Authenticate checks an email/password pair against the configured set.
// Password comparison is constant-time.
func (c Credentials) Authenticate(email, password string) (*domain.User, bool) {
	for _, cred := range c {
		if cred.Email != email {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(cred.Password), []byte(password)) != 1 {
			return nil, false
		}
		return &domain.User{ID: cred.UserID, Email: cred.Email, Role: cred.Role}, true
	}
	return nil, false
}
