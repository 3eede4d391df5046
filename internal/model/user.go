package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles understood by the API.
type Role string

const (
	RoleGuest Role = "Guest"
	RoleHost  Role = "Host"
	RoleAdmin Role = "Admin"
)

// ParseRole maps a role name to a Role. Matching ignores case and
// surrounding whitespace; any other value is rejected.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "guest":
		return RoleGuest, nil
	case "host":
		return RoleHost, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleGuest || r == RoleHost || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// User mirrors the `users` table.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	FirstName    – given name.
//	LastName     – family name.
//	Username     – unique login name.
//	Email        – unique email address.
//	PasswordHash – bcrypt digest; never leaves the process.
//	Role         – Guest, Host or Admin.
type User struct {
	ID           uint64    // users.id
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
