package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a stocked catalog item.
// StockQuantity only grows through order deliveries or manager edits and never goes below zero.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Code          string          `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Designation   string          `gorm:"size:255;not null" json:"designation"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	ImageRef      string          `gorm:"size:500" json:"image_ref,omitempty"`
	Archived      bool            `gorm:"not null;default:false;index" json:"archived"`

	SubCategoryID uint         `gorm:"not null;index" json:"sub_category_id"`
	SubCategory   *SubCategory `gorm:"foreignKey:SubCategoryID" json:"sub_category,omitempty"`
}

// IsLowStock reports whether the product is at or under the given threshold.
func (p *Product) IsLowStock(threshold int) bool {
	return p.StockQuantity <= threshold
}
