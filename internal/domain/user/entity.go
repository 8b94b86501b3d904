package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser            Role = "user"
	RoleAdmin           Role = "admin"
	RoleVerifiedContact Role = "verified_contact"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleVerifiedContact:
		return true
	}
	return false
}

// User represents the users table
type User struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   string
	Name           string
	Phone          sql.NullString
	ContactInfo    sql.NullString
	Role           Role
	ProfilePicture sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
