package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of a purchase order.
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "EN_COURS"
	OrderStatusDelivered  OrderStatus = "LIVRE"
	OrderStatusPaid       OrderStatus = "PAYE"
	OrderStatusCancelled  OrderStatus = "ANNULE"
)

// orderTransitions lists every allowed status edge.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusInProgress: {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusPaid},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusInProgress, OrderStatusDelivered, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a purchase order placed with a supplier.
// TotalAmount is fixed at creation; items are never edited afterwards.
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Number string `gorm:"uniqueIndex;size:20;not null" json:"number"`

	SupplierID uint      `gorm:"index;not null" json:"supplier_id"`
	Supplier   *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`

	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`

	ExpectedDeliveryDate time.Time  `gorm:"not null" json:"expected_delivery_date"`
	ActualDeliveryDate   *time.Time `json:"actual_delivery_date,omitempty"`

	Status OrderStatus `gorm:"size:20;not null;index" json:"status"`

	PurchasingAgentID uint  `gorm:"index;not null" json:"purchasing_agent_id"`
	PurchasingAgent   *User `gorm:"foreignKey:PurchasingAgentID" json:"purchasing_agent,omitempty"`
}

// ComputeTotal returns the sum of the item subtotals.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// IsOpen reports whether the order still represents exposure with its supplier.
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusInProgress || o.Status == OrderStatusDelivered
}

// AcceptsPayments reports whether payments may be recorded against the order.
func (o *Order) AcceptsPayments() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusPaid
}

// OrderItem is one product line of an order.
type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"index;not null" json:"order_id"`

	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Quantity      int             `gorm:"not null" json:"quantity"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"purchase_price"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
}

// ComputeSubtotal returns quantity × purchase price.
func (item *OrderItem) ComputeSubtotal() decimal.Decimal {
	return item.PurchasePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
