package models

import (
	"time"
)

// UserRole represents the role of a user
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// IsAdmin reports whether the role grants administrative actions
func (r UserRole) IsAdmin() bool {
	switch r {
	case UserRoleAdmin:
		return true
	case UserRoleUser:
		return false
	default:
		return false
	}
}

// User represents a registered donor or charity operator
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash  string     `gorm:"type:varchar(255);not null" json:"-"`
	FirstName     string     `gorm:"type:varchar(255)" json:"first_name"`
	LastName      string     `gorm:"type:varchar(255)" json:"last_name"`
	Phone         string     `gorm:"type:varchar(50)" json:"phone"`
	Role          UserRole   `gorm:"type:varchar(20);default:'user'" json:"role"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}
