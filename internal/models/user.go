package models

import (
	"time"

	"github.com/diewo77/quincaillerie/gate"
)

// User is a staff member. Role drives authorization through the gate table.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	LastName     string    `gorm:"size:100;not null" json:"last_name"`
	FirstName    string    `gorm:"size:100;not null" json:"first_name"`
	Role         gate.Role `gorm:"size:30;not null;index" json:"role"`
	// Active is written explicitly on create; no column default so false is persisted as-is.
	Active bool `gorm:"not null" json:"active"`
}

// Subject returns the authorization view of the user.
func (u *User) Subject() *gate.Subject {
	return &gate.Subject{UserID: u.ID, Role: u.Role, Active: u.Active}
}
