package models

import "time"

// Supplier is a vendor purchase orders are placed with.
type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Number    string    `gorm:"uniqueIndex;size:50;not null" json:"number"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Address   string    `gorm:"size:500;not null" json:"address"`
	Phone     string    `gorm:"size:50" json:"phone,omitempty"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Archived  bool      `gorm:"not null;default:false;index" json:"archived"`
}
