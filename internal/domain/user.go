package domain

import "errors"

// User is an authenticated API caller, carried in request context when
// bearer-token auth is enabled. Users are not stored; they exist only as
// verified token claims.
type User struct {
	ID    string
	Email string
	Role  Role
}

// Role represents a caller's access level
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleBookkeeper can submit directives and transactions, but cannot
	// administer the service
	RoleBookkeeper Role = "bookkeeper"

	// RoleAuditor can only read balances, journals and diagnostics
	RoleAuditor Role = "auditor"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleAdmin:      true,
	RoleBookkeeper: true,
	RoleAuditor:    true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanSubmit checks if the role can submit directives and transactions
func (r Role) CanSubmit() bool {
	return r == RoleAdmin || r == RoleBookkeeper
}

// CanRead checks if the role can read ledger state
func (r Role) CanRead() bool {
	// All authenticated users can read
	return r.IsValid()
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
