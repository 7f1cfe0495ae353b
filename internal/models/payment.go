package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxInstallments is the number of installment slots each order offers.
const MaxInstallments = 3

// Payment is one installment recorded against a delivered order. Rows are append-only.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Number string `gorm:"uniqueIndex;size:20;not null" json:"number"`

	OrderID uint   `gorm:"not null;uniqueIndex:idx_payment_order_installment" json:"order_id"`
	Order   *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`

	Amount            decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Date              time.Time       `gorm:"not null;index" json:"date"`
	InstallmentNumber int             `gorm:"not null;uniqueIndex:idx_payment_order_installment" json:"installment_number"`

	RecordedByID uint  `gorm:"index;not null" json:"recorded_by_id"`
	RecordedBy   *User `gorm:"foreignKey:RecordedByID" json:"recorded_by,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`
}

// ValidInstallment reports whether n is an installment slot of the plan.
func ValidInstallment(n int) bool {
	return n >= 1 && n <= MaxInstallments
}
