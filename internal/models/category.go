package models

import "time"

// Category is the top level of the catalog hierarchy.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	Archived    bool      `gorm:"not null;default:false;index" json:"archived"`

	SubCategories []SubCategory `gorm:"foreignKey:CategoryID" json:"sub_categories,omitempty"`
}

// SubCategory groups products under a category. Names are unique per category.
type SubCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_subcategory_name_category" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	Archived    bool      `gorm:"not null;default:false;index" json:"archived"`

	CategoryID uint      `gorm:"not null;index;uniqueIndex:idx_subcategory_name_category" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	Products []Product `gorm:"foreignKey:SubCategoryID" json:"products,omitempty"`
}
