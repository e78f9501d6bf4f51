// internal/domain/auth/entity.go
package auth

import (
	"database/sql"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type User struct {
	ID           int64          `json:"id" db:"id"`
	Username     string         `json:"username" db:"username"`
	Email        sql.NullString `json:"email,omitempty" db:"email"`
	FullName     sql.NullString `json:"full_name,omitempty" db:"full_name"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Role         string         `json:"role" db:"role"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Public returns the user without credential fields, for API responses.
func (u *User) Public() PublicUser {
	p := PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
	if u.Email.Valid {
		p.Email = u.Email.String
	}
	if u.FullName.Valid {
		p.FullName = u.FullName.String
	}
	return p
}

type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}
