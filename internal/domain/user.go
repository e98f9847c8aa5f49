package domain

import "time"

// UserRole controls access to the admin surface
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleSalesperson UserRole = "SALESPERSON"
)

// User is an application account (salesperson or administrator)
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// AuthClaims carries the identity extracted from a session token
type AuthClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}
