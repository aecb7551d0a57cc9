package models

import "fmt"

// Role is the access level of a user account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleClient   Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleClient:
		return true
	default:
		return false
	}
}

// User is a login credential record. Password holds the output of the password hasher,
// or a legacy plaintext value that is rehashed on the next successful login.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

// Validate checks that the stored user has an email and a known role.
func (u User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("%w: user %d without email", ErrValidation, u.ID)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: user %s has unknown role %q", ErrValidation, u.Email, u.Role)
	}
	return nil
}

// Public returns a copy of the user without the password.
func (u User) Public() User {
	u.Password = ""
	return u
}
